package nist

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const compoundPage = `<html><body><h1 id="Top">Methanol</h1>
<ul>
<li><strong><a title="IUPAC definition of empirical formula" href="/cgi/cbook.cgi?Contrib=&amp;Units=SI">Formula</a>:</strong> CH<sub>4</sub>O</li>
<li><strong><a title="IUPAC definition of relative molecular mass (molecular weight)" href="http://goldbook.iupac.org/R05271.html">Molecular weight</a>:</strong> 32.0419</li>
</ul>
<ul><li><a href="/cgi/cbook.cgi?ID=C67561&amp;Units=SI&amp;Mask=200#Mass-Spec">Mass spectrum (electron ionization)</a></li></ul>
</body></html>`

const massSpecPage = `<html><body>
<p><a href="/cgi/cbook.cgi?JCAMP=C67561&amp;Index=0&amp;Type=Mass">spectrum</a> in JCAMP-DX format.</p>
</body></html>`

const notFoundPage = `<html><body><h1>Name Not Found</h1></body></html>`

const methanolJDX = `##TITLE=Methanol
##JCAMP-DX=4.24
##ORIGIN=NIST Mass Spectrometry Data Center
##MOLFORM=C H4 O
##MW=32
##PEAK TABLE=(XY..XY)
15,528 29,6473 31,9999
##END=
`

func newWebBook(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		q := r.URL.Query()
		switch {
		case q.Get("Name") == "Methanol":
			fmt.Fprint(w, compoundPage)
		case q.Get("ID") == "C67561":
			fmt.Fprint(w, massSpecPage)
		case q.Get("JCAMP") == "C67561":
			fmt.Fprint(w, methanolJDX)
		default:
			fmt.Fprint(w, notFoundPage)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestMetadata(t *testing.T) {
	srv, _ := newWebBook(t)
	c, err := NewClient(Config{BaseURL: srv.URL}, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	meta, err := c.Metadata(context.Background(), "Methanol")
	require.NoError(t, err)
	assert.Equal(t, Metadata{Formula: "CH4O", MolecularWeight: 32.0419, ElectronCount: 18}, meta)
}

func TestMetadataNotFound(t *testing.T) {
	srv, _ := newWebBook(t)
	c, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Metadata(context.Background(), "Unobtainium")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSpectrum(t *testing.T) {
	srv, hits := newWebBook(t)
	saveDir := filepath.Join(t.TempDir(), "JDXFiles")
	c, err := NewClient(Config{BaseURL: srv.URL}, WithSaveDir(saveDir), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	spec, err := c.Spectrum(context.Background(), "Methanol")
	require.NoError(t, err)
	assert.Equal(t, "Methanol", spec.Title)
	assert.Equal(t, "Methanol.jdx", spec.SourceFile)
	assert.Len(t, spec.Points, 3)
	assert.Equal(t, int32(3), hits.Load())

	saved, err := os.ReadFile(filepath.Join(saveDir, "Methanol.jdx"))
	require.NoError(t, err)
	assert.Equal(t, methanolJDX, string(saved))
}

func TestSpectrumNotFound(t *testing.T) {
	srv, _ := newWebBook(t)
	c, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Spectrum(context.Background(), "Unobtainium")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBreakerOpensAfterServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, BreakerFailures: 2})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := c.Metadata(context.Background(), "Methanol")
		var statusErr *httpStatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	}

	_, err = c.Metadata(context.Background(), "Methanol")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), hits.Load())
}

func TestNotFoundDoesNotTripBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, BreakerFailures: 1})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := c.Metadata(context.Background(), "Methanol")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, int32(3), hits.Load())
}

func TestCanceledContext(t *testing.T) {
	srv, hits := newWebBook(t)
	c, err := NewClient(Config{BaseURL: srv.URL, RequestsPerSecond: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Metadata(ctx, "Methanol")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, hits.Load())
}

func TestCompoundURL(t *testing.T) {
	c, err := NewClient(Config{})
	require.NoError(t, err)
	assert.Equal(t, "https://webbook.nist.gov/cgi/cbook.cgi?Name=1%2C3-pentadiene&Units=SI", c.CompoundURL("1,3-pentadiene"))
}
