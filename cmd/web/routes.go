package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/AdamBeresnev/league-app/internal/db"
	"github.com/AdamBeresnev/league-app/internal/httputil"
	"github.com/AdamBeresnev/league-app/internal/isc"
	"github.com/AdamBeresnev/league-app/internal/league"
	"github.com/AdamBeresnev/league-app/internal/middleware"
	"github.com/AdamBeresnev/league-app/internal/pairing"
	"github.com/AdamBeresnev/league-app/internal/service"
	"github.com/AdamBeresnev/league-app/internal/store"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"
)

func newRouter(sessionManager *scs.SessionManager, timeout time.Duration, provider isc.Provider) http.Handler {
	dbConn := db.GetDB()
	eventStore := store.NewEventStore(dbConn)
	playerStore := store.NewPlayerStore(dbConn)
	userStore := store.NewUserStore(dbConn)

	eventService := service.NewEventService(dbConn, eventStore, playerStore)
	matchService := service.NewMatchService(dbConn, eventStore, timeout)
	playerService := service.NewPlayerService(dbConn, playerStore)
	userService := service.NewUserService(dbConn, userStore)

	var fetcher *service.ResultFetcher
	if provider != nil {
		fetcher = service.NewResultFetcher(provider, eventStore, playerStore, matchService)
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.LoadAuthenticatedUser(sessionManager, userStore))

	r.Get("/players", func(w http.ResponseWriter, r *http.Request) {
		players, err := playerService.ListPlayers(r.Context())
		if err != nil {
			httputil.InternalServerError(w, "Failed to list players", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, players)
	})

	r.Get("/players/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid player ID", err)
			return
		}
		player, err := playerService.GetPlayer(r.Context(), id)
		if err != nil {
			httputil.DomainError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, player)
	})

	r.Get("/players/{id}/statistics", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid player ID", err)
			return
		}
		stats, err := playerService.GetStatistics(r.Context(), id)
		if err != nil {
			httputil.DomainError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, stats)
	})

	r.Get("/players/{id}/head-to-head/{opponentId}", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid player ID", err)
			return
		}
		opponentID, err := uuid.Parse(chi.URLParam(r, "opponentId"))
		if err != nil {
			httputil.BadRequest(w, "Invalid opponent ID", err)
			return
		}
		h2h, err := playerService.GetHeadToHead(r.Context(), id, opponentID)
		if err != nil {
			httputil.DomainError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, h2h)
	})

	r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
		events, err := eventService.ListEvents(r.Context())
		if err != nil {
			httputil.InternalServerError(w, "Failed to list events", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, events)
	})

	r.Get("/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid event ID", err)
			return
		}
		event, err := eventService.GetEvent(r.Context(), id)
		if err != nil {
			httputil.DomainError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, event)
	})

	r.Get("/events/{id}/matches", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid event ID", err)
			return
		}
		matches, err := eventService.GetMatches(r.Context(), id)
		if err != nil {
			httputil.DomainError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, matches)
	})

	r.Get("/events/{id}/pairings", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid event ID", err)
			return
		}
		projected, err := eventService.ProjectPairings(r.Context(), id, pairingOptions(r))
		if err != nil {
			httputil.DomainError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, projected)
	})

	r.Get("/events/{id}/rankings", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid event ID", err)
			return
		}
		rows, err := eventService.EventRanking(r.Context(), id)
		if err != nil {
			httputil.DomainError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, rows)
	})

	r.Post("/matches/{id}/result", func(w http.ResponseWriter, r *http.Request) {
		matchID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid match ID", err)
			return
		}
		var body struct {
			PlayerID uuid.UUID `json:"playerId"`
			Score1   int       `json:"score1"`
			Score2   int       `json:"score2"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}
		match, err := matchService.SubmitResult(r.Context(), matchID, body.PlayerID, league.Score{P1: body.Score1, P2: body.Score2})
		if err != nil {
			httputil.DomainError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, match)
	})

	// Administrator operations
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin)

		r.Post("/players", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Name        string `json:"name"`
				ISCUsername string `json:"iscUsername"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			player, err := playerService.CreatePlayer(r.Context(), body.Name, body.ISCUsername)
			if err != nil {
				httputil.DomainError(w, err)
				return
			}
			httputil.WriteJSON(w, http.StatusCreated, player)
		})

		r.Post("/events", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Name string `json:"name"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			event, err := eventService.CreateEvent(r.Context(), body.Name)
			if err != nil {
				httputil.DomainError(w, err)
				return
			}
			httputil.WriteJSON(w, http.StatusCreated, event)
		})

		r.Post("/events/{id}/status", func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid event ID", err)
				return
			}
			var body struct {
				Status league.EventStatus `json:"status"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			event, err := eventService.SetStatus(r.Context(), id, body.Status)
			if err != nil {
				httputil.DomainError(w, err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, event)
		})

		r.Post("/events/{id}/rounds/generate", func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid event ID", err)
				return
			}
			result, err := eventService.GeneratePairings(r.Context(), id, pairingOptions(r))
			if err != nil {
				httputil.DomainError(w, err)
				return
			}
			httputil.WriteJSON(w, http.StatusCreated, result)
		})

		r.Post("/events/{id}/rounds/{number}/complete", func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid event ID", err)
				return
			}
			number, err := strconv.Atoi(chi.URLParam(r, "number"))
			if err != nil {
				httputil.BadRequest(w, "Invalid round number", err)
				return
			}
			var body struct {
				Force bool `json:"force"`
			}
			// Body is optional; ignore decode errors on empty bodies.
			json.NewDecoder(r.Body).Decode(&body)

			summary, err := eventService.CompleteRound(r.Context(), id, number, body.Force)
			if err != nil {
				httputil.DomainError(w, err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, summary)
		})

		r.Post("/matches/{id}/resolve", func(w http.ResponseWriter, r *http.Request) {
			matchID, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid match ID", err)
				return
			}
			var body struct {
				Score1  int    `json:"score1"`
				Score2  int    `json:"score2"`
				Forfeit bool   `json:"forfeit"`
				Reason  string `json:"reason"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			match, err := matchService.ResolveDispute(r.Context(), matchID, league.Score{P1: body.Score1, P2: body.Score2}, body.Forfeit, body.Reason)
			if err != nil {
				httputil.DomainError(w, err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, match)
		})

		r.Post("/matches/checktimeouts", func(w http.ResponseWriter, r *http.Request) {
			expired, err := matchService.CheckTimeouts(r.Context(), time.Now().UTC())
			if err != nil {
				httputil.DomainError(w, err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, expired)
		})

		r.Post("/events/{id}/isc/fetch", func(w http.ResponseWriter, r *http.Request) {
			if fetcher == nil {
				httputil.Conflict(w, "No result provider configured", nil)
				return
			}
			id, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid event ID", err)
				return
			}
			submitted, err := fetcher.FetchEventResults(r.Context(), id)
			if err != nil {
				httputil.DomainError(w, err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, map[string]int{"submitted": submitted})
		})
	})

	r.Get("/auth/{provider}", func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

		gothic.BeginAuthHandler(w, r)
	})

	r.Get("/auth/{provider}/callback", func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

		gothUser, err := gothic.CompleteUserAuth(w, r)
		if err != nil {
			httputil.BadRequest(w, "Authentication failure", err)
			return
		}

		user, err := userService.FindOrCreateUserByProvider(r.Context(), gothUser)
		if err != nil {
			httputil.InternalServerError(w, "Failed to find or create user", err)
			return
		}

		sessionManager.Put(r.Context(), "userID", user.ID.String())
		http.Redirect(w, r, "/", http.StatusFound)
	})

	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		sessionManager.Destroy(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	return r
}

func pairingOptions(r *http.Request) pairing.Options {
	opts := pairing.DefaultOptions()
	if r.URL.Query().Get("avoidRematches") == "false" {
		opts.AvoidRematches = false
	}
	if r.URL.Query().Get("balanceCategories") == "false" {
		opts.BalanceCategories = false
	}
	return opts
}
