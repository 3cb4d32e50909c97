package tree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mj1618/remote-ui-mcp/internal/fault"
	"github.com/mj1618/remote-ui-mcp/internal/model"
	"github.com/mj1618/remote-ui-mcp/internal/platform"
	"github.com/mj1618/remote-ui-mcp/internal/uithread"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Scanner produces multi-window snapshots and refills the identity cache.
type Scanner struct {
	provider platform.AccessibilityProvider
	cache    *Cache
	loop     *uithread.Loop
}

func NewScanner(provider platform.AccessibilityProvider, cache *Cache, loop *uithread.Loop) *Scanner {
	return &Scanner{provider: provider, cache: cache, loop: loop}
}

// Scan snapshots every window on the UI thread. The identity cache is
// replaced only when the whole scan succeeds.
func (s *Scanner) Scan(ctx context.Context) (model.MultiWindowResult, error) {
	return uithread.Call(ctx, s.loop, s.scan)
}

func (s *Scanner) scan() (model.MultiWindowResult, error) {
	var result model.MultiWindowResult
	if !s.provider.IsReady() {
		return result, fault.PermissionDenied("accessibility service is not connected")
	}

	sink := &Sink{}
	windows, err := s.provider.Windows()
	// Roots in windows[next:] are still owned here; parsed ones belong to sink.
	next, committed := 0, false
	defer func() {
		if committed {
			return
		}
		sink.Discard()
		for _, w := range windows[next:] {
			if w.Root != nil {
				w.Root.Release()
			}
		}
	}()

	switch {
	case errors.Is(err, platform.ErrMultiWindowUnsupported):
		result.Degraded = true
		if root := s.provider.RootHandle(); root != nil {
			parsed := ParseTree(root, windowSeed(0), sink)
			result.Windows = []model.WindowSnapshot{{
				Type:        model.WindowApplication,
				PackageName: root.Attributes().PackageName,
				Focused:     true,
				Tree:        parsed,
			}}
		}
	case err != nil:
		return result, fault.Internal(err, "window enumeration failed")
	default:
		sort.SliceStable(windows, func(i, j int) bool {
			if windows[i].Info.Layer != windows[j].Info.Layer {
				return windows[i].Info.Layer > windows[j].Info.Layer
			}
			return windows[i].Info.ID < windows[j].Info.ID
		})
		for i, w := range windows {
			next = i + 1
			if w.Root == nil {
				slog.Debug("skipping window without root", slog.Int("window_id", w.Info.ID))
				continue
			}
			result.Windows = append(result.Windows, model.WindowSnapshot{
				WindowID:     w.Info.ID,
				Type:         w.Info.Type,
				PackageName:  w.Info.PackageName,
				Title:        w.Info.Title,
				ActivityName: w.Info.ActivityName,
				Layer:        w.Info.Layer,
				Focused:      w.Info.Focused,
				Tree:         ParseTree(w.Root, windowSeed(w.Info.ID), sink),
			})
		}
	}

	scanNodes.Record(context.Background(), int64(sink.Len()),
		metric.WithAttributes(attribute.Bool("degraded", result.Degraded)))
	s.cache.Replace(sink)
	committed = true
	return result, nil
}

// Clear empties the identity cache on the UI thread.
func (s *Scanner) Clear(ctx context.Context) error {
	return s.loop.Do(ctx, func() error {
		s.cache.Clear()
		return nil
	})
}

func windowSeed(id int) string {
	return fmt.Sprintf("w%d", id)
}
