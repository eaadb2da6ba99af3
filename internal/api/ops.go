package api

import (
	"context"
	_ "embed"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/talentum-plus/talentum/internal/store"
)

//go:embed dashboard.html
var dashboardHTML []byte

const healthTimeout = 5 * time.Second

func (s *Server) dashboard(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := w.Write(dashboardHTML)
	return err
}

// health pings every store concurrently and reports each outcome.
func (s *Server) health(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	pingers := map[string]store.Pinger{
		store.NameDocuments:  s.docs,
		store.NameRelational: s.rel,
		store.NameGraph:      s.graph,
		store.NameCache:      s.cache,
	}

	var (
		mu      sync.Mutex
		results = make(map[string]string, len(pingers))
		g       errgroup.Group
	)
	for name, p := range pingers {
		g.Go(func() error {
			err := p.Ping(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[name] = err.Error()
				s.logger.Warn("health check failed", zap.String("store", name), zap.Error(err))
				return err
			}
			results[name] = "ok"
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, object{"status": "degraded", "stores": results})
		return nil
	}
	writeJSON(w, http.StatusOK, object{"status": "ok", "stores": results})
	return nil
}
