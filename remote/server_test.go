package remote

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-step/sequencer"
)

type fakeSequencer struct {
	calls    []string
	tempo    int
	pattern  int
	imported []byte
}

func (f *fakeSequencer) Snapshot() sequencer.Snapshot {
	return sequencer.Snapshot{Tempo: f.tempo, Pattern: f.pattern, Marker: sequencer.MarkerTie}
}

func (f *fakeSequencer) Transport(ev sequencer.TransportEvent) {
	f.calls = append(f.calls, "transport:"+ev.String())
}

func (f *fakeSequencer) SelectPattern(i int) { f.pattern = i }

func (f *fakeSequencer) GridPress(row, col int, pressed bool) {
	if pressed {
		f.calls = append(f.calls, "grid")
	}
}

func (f *fakeSequencer) SelectorPress(button int, pressed bool) {
	if pressed {
		f.calls = append(f.calls, "selector")
	}
}

func (f *fakeSequencer) SetTempo(bpm int) { f.tempo = bpm }

func (f *fakeSequencer) SetClockSource(s sequencer.ClockSource) {
	f.calls = append(f.calls, "clock:"+s.String())
}

func (f *fakeSequencer) SetResetPolicy(p sequencer.ResetPolicy) {
	f.calls = append(f.calls, "reset:"+p.String())
}

func (f *fakeSequencer) Panic() { f.calls = append(f.calls, "panic") }
func (f *fakeSequencer) Clear() { f.calls = append(f.calls, "clear") }

func (f *fakeSequencer) ExportPatterns() ([]byte, error) {
	return []byte(`{"version":1}`), nil
}

func (f *fakeSequencer) ImportPatterns(blob []byte) error {
	if !strings.Contains(string(blob), "version") {
		return errors.New("bad blob")
	}
	f.imported = blob
	return nil
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestState(t *testing.T) {
	seq := &fakeSequencer{tempo: 133, pattern: 2}
	h := NewServer(seq).Handler()

	rr := do(t, h, "GET", "/state", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, float64(133), got["tempo"])
	assert.Equal(t, float64(2), got["pattern"])
	assert.Equal(t, "tie", got["marker"])
}

func TestTransportEndpoint(t *testing.T) {
	seq := &fakeSequencer{}
	h := NewServer(seq).Handler()

	assert.Equal(t, http.StatusAccepted, do(t, h, "POST", "/transport/start", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/transport/rewind", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, "GET", "/transport/start", "").Code)
	assert.Equal(t, []string{"transport:start"}, seq.calls)
}

func TestGridAndSelectorBounds(t *testing.T) {
	seq := &fakeSequencer{}
	h := NewServer(seq).Handler()

	assert.Equal(t, http.StatusAccepted, do(t, h, "POST", "/grid/7/7", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/grid/8/0", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, "POST", "/grid/-1/0", "").Code)
	assert.Equal(t, http.StatusAccepted, do(t, h, "POST", "/selector/3", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/selector/8", "").Code)
	assert.Equal(t, []string{"grid", "selector"}, seq.calls)
}

func TestSettingsEndpoints(t *testing.T) {
	seq := &fakeSequencer{}
	h := NewServer(seq).Handler()

	do(t, h, "POST", "/tempo/140", "")
	assert.Equal(t, 140, seq.tempo)

	do(t, h, "POST", "/patterns/5/select", "")
	assert.Equal(t, 5, seq.pattern)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/patterns/8/select", "").Code)

	assert.Equal(t, http.StatusAccepted, do(t, h, "POST", "/clock/external", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/clock/atomic", "").Code)
	assert.Equal(t, http.StatusAccepted, do(t, h, "POST", "/reset/every-measure", "").Code)
	do(t, h, "POST", "/panic", "")
	assert.Equal(t, []string{"clock:external", "reset:every-measure", "panic"}, seq.calls)
}

func TestPatternsEndpoints(t *testing.T) {
	seq := &fakeSequencer{}
	h := NewServer(seq).Handler()

	rr := do(t, h, "GET", "/patterns", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"version":1}`, rr.Body.String())

	assert.Equal(t, http.StatusNoContent, do(t, h, "PUT", "/patterns", `{"version":1}`).Code)
	assert.Equal(t, `{"version":1}`, string(seq.imported))
	assert.Equal(t, http.StatusBadRequest, do(t, h, "PUT", "/patterns", `junk`).Code)

	assert.Equal(t, http.StatusNoContent, do(t, h, "DELETE", "/patterns", "").Code)
	assert.Equal(t, []string{"clear"}, seq.calls)
}

func TestCORSPreflight(t *testing.T) {
	h := NewServer(&fakeSequencer{}).Handler()
	req := httptest.NewRequest("OPTIONS", "/patterns", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
