package sigengine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// startHTTP launches the HTTP server for strategy introspection and live
// weight updates.
func (svc *Service) startHTTP(ctx context.Context) {
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/strategies", svc.handleStrategies)
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, "ok")
		})
		log.Printf("[sigengine] HTTP server on %s (/strategies, /healthz)", svc.cfg.HTTPAddr)
		if err := http.ListenAndServe(svc.cfg.HTTPAddr, mux); err != nil {
			log.Printf("[sigengine] HTTP server error: %v", err)
		}
	}()
}

// strategyUpdate is the body of a POST /strategies request.
type strategyUpdate struct {
	Name    string   `json:"name"`
	Weight  *float64 `json:"weight,omitempty"`
	Enabled *bool    `json:"enabled,omitempty"`
}

// handleStrategies serves GET (list slots) and POST (update weight/enabled).
func (svc *Service) handleStrategies(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(svc.engine.Strategies())

	case http.MethodPost:
		var updates []strategyUpdate
		if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
			http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		applied, errs := svc.applyUpdates(updates)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "ok",
			"applied": applied,
			"errors":  errs,
		})

	default:
		http.Error(w, "GET or POST only", http.StatusMethodNotAllowed)
	}
}

func (svc *Service) applyUpdates(updates []strategyUpdate) (int, []string) {
	applied := 0
	var errs []string
	for _, u := range updates {
		if u.Weight != nil {
			if err := svc.engine.SetStrategyWeight(u.Name, *u.Weight); err != nil {
				errs = append(errs, err.Error())
				continue
			}
		}
		if u.Enabled != nil {
			if err := svc.engine.SetStrategyEnabled(u.Name, *u.Enabled); err != nil {
				errs = append(errs, err.Error())
				continue
			}
		}
		applied++
	}
	return applied, errs
}

// startConfigSubscriber listens on Redis PubSub for dynamic strategy weight
// updates in "name:weight,..." form.
func (svc *Service) startConfigSubscriber(ctx context.Context) {
	go func() {
		pubsub := svc.redisReader.Client().Subscribe(ctx, "config:strategies")
		if _, err := pubsub.Receive(ctx); err != nil {
			log.Printf("[sigengine] WARNING: could not subscribe to config:strategies: %v", err)
			pubsub.Close()
			return
		}
		defer pubsub.Close()
		log.Println("[sigengine] subscribed to config:strategies for dynamic reload")

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				log.Printf("[sigengine] received strategy update: %s", msg.Payload)
				svc.reloadFromSpecs(ParseStrategySpecs(msg.Payload))
			}
		}
	}()
}

// reloadFromSpecs applies parsed weight specs to registered strategies.
// Strategies absent from the specs are disabled; unknown names are logged
// and skipped.
func (svc *Service) reloadFromSpecs(specs []StrategySpec) {
	if len(specs) == 0 {
		return
	}
	named := map[string]float64{}
	for _, spec := range specs {
		named[spec.Name] = spec.Weight
	}

	updated, disabled := 0, 0
	for _, st := range svc.engine.Strategies() {
		weight, keep := named[st.Name]
		if !keep {
			if err := svc.engine.SetStrategyEnabled(st.Name, false); err == nil {
				disabled++
			}
			continue
		}
		if err := svc.engine.SetStrategyWeight(st.Name, weight); err != nil {
			log.Printf("[sigengine] weight update rejected for %s: %v", st.Name, err)
			continue
		}
		svc.engine.SetStrategyEnabled(st.Name, true)
		updated++
		delete(named, st.Name)
	}
	for name := range named {
		log.Printf("[sigengine] ignoring unregistered strategy in update: %q", name)
	}
	log.Printf("[sigengine] strategy reload: updated=%d, disabled=%d", updated, disabled)
}
