package geo

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPLocatorLocate(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    Position
		wantErr bool
	}{
		{
			name:   "lat lon keys",
			status: http.StatusOK,
			body:   `{"status":"success","lat":59.3293,"lon":18.0686}`,
			want:   Position{Longitude: 18.0686, Latitude: 59.3293},
		},
		{
			name:   "long keys",
			status: http.StatusOK,
			body:   `{"latitude":-33.8688,"longitude":151.2093}`,
			want:   Position{Longitude: 151.2093, Latitude: -33.8688},
		},
		{name: "no coordinates", status: http.StatusOK, body: `{"status":"fail"}`, wantErr: true},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var accuracy string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				accuracy = r.URL.Query().Get("accuracy")
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			pos, err := NewHTTPLocator(server.URL+"/json", 0).Locate(context.Background())
			if accuracy != "100" {
				t.Errorf("expected accuracy 100, got %q", accuracy)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("Locate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && pos != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, pos)
			}
		})
	}
}

type flakyLocator struct {
	pos Position
	err error
}

func (f *flakyLocator) Locate(ctx context.Context) (Position, error) {
	return f.pos, f.err
}

func TestTrackerKeepsLastKnownPosition(t *testing.T) {
	initial := Position{Longitude: 1, Latitude: 2}
	loc := &flakyLocator{pos: Position{Longitude: 10, Latitude: 20}}
	tracker := NewTracker(loc, initial)

	if tracker.Located() {
		t.Error("tracker should not be located before a refresh")
	}
	if tracker.Last() != initial {
		t.Errorf("expected initial position, got %+v", tracker.Last())
	}

	pos, err := tracker.Refresh(context.Background())
	if err != nil || pos != loc.pos {
		t.Fatalf("unexpected refresh result %+v, %v", pos, err)
	}

	loc.err = errors.New("no fix")
	pos, err = tracker.Refresh(context.Background())
	if err == nil {
		t.Fatal("expected error from failing locator")
	}
	if pos != (Position{Longitude: 10, Latitude: 20}) {
		t.Errorf("expected last known position on failure, got %+v", pos)
	}
	if !tracker.Located() {
		t.Error("tracker should stay located after an earlier success")
	}
}
