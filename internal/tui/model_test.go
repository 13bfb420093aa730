package tui

import (
	"testing"

	"github.com/DeprecatedLuke/oh-my-pi/internal/config"
)

func TestOverlaySizing(t *testing.T) {
	cfg := &config.Config{WidthFraction: 90, HeightFraction: 80}
	tests := []struct {
		name               string
		hostW, hostH       int
		wantMinW, wantMaxW int
		wantCols, wantRows int
	}{
		{"typical terminal", 120, 40, 100, 110, 106, 28},
		{"tiny terminal", 10, 3, 10, 10, 8, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Model{cfg: cfg, width: tt.hostW, height: tt.hostH}
			w, h := m.overlaySize()
			if w < tt.wantMinW || w > tt.wantMaxW {
				t.Errorf("overlay width = %d, want within [%d,%d]", w, tt.wantMinW, tt.wantMaxW)
			}
			if w > tt.hostW || h > tt.hostH {
				t.Errorf("overlay %dx%d exceeds host %dx%d", w, h, tt.hostW, tt.hostH)
			}
			cols, rows := m.childSize()
			if cols != tt.wantCols || rows != tt.wantRows {
				t.Errorf("child size = %dx%d, want %dx%d", cols, rows, tt.wantCols, tt.wantRows)
			}
		})
	}
}
