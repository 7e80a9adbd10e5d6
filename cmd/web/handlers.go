package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/AdamBeresnev/h2h-playoffs/internal/bracket"
	"github.com/AdamBeresnev/h2h-playoffs/internal/httputil"
	"github.com/AdamBeresnev/h2h-playoffs/internal/live"
	"github.com/AdamBeresnev/h2h-playoffs/internal/scoring"
	"github.com/AdamBeresnev/h2h-playoffs/internal/service"
	"github.com/AdamBeresnev/h2h-playoffs/internal/store"
	"github.com/AdamBeresnev/h2h-playoffs/views"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const defaultRowsPerTeam = 4

type handler struct {
	playoffs *service.PlayoffService
	hub      *live.Hub
}

func tournamentID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "tournamentID"))
}

func bracketID(r *http.Request) (bracket.ID, error) {
	tid, err := tournamentID(r)
	if err != nil {
		return bracket.ID{}, err
	}
	division, err := url.PathUnescape(chi.URLParam(r, "division"))
	if err != nil {
		return bracket.ID{}, err
	}
	return bracket.ID{TournamentID: tid, Division: division}, nil
}

func intParam(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return n, nil
}

// queryInt reads an optional integer query value
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return n, nil
}

func (h *handler) setTables(w http.ResponseWriter, r *http.Request) {
	tid, err := tournamentID(r)
	if err != nil {
		httputil.BadRequest(w, "Invalid tournament ID", err)
		return
	}
	var pairs []store.TablePair
	if err := json.NewDecoder(r.Body).Decode(&pairs); err != nil {
		httputil.BadRequest(w, "Invalid table pairs", err)
		return
	}
	if err := h.playoffs.SetTables(r.Context(), tid, pairs); err != nil {
		httputil.Error(w, "Failed to save tables", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) submitPerformance(w http.ResponseWriter, r *http.Request) {
	tid, err := tournamentID(r)
	if err != nil {
		httputil.BadRequest(w, "Invalid tournament ID", err)
		return
	}
	var p scoring.Performance
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httputil.BadRequest(w, "Invalid performance", err)
		return
	}
	p.TournamentID = tid

	outcomes, err := h.playoffs.SubmitPerformance(r.Context(), &p)
	if err != nil {
		httputil.Error(w, "Failed to submit performance", err)
		return
	}
	if outcomes == nil {
		outcomes = []service.MatchOutcome{}
	}
	httputil.WriteJSON(w, http.StatusOK, outcomes)
}

func (h *handler) listBrackets(w http.ResponseWriter, r *http.Request) {
	tid, err := tournamentID(r)
	if err != nil {
		httputil.BadRequest(w, "Invalid tournament ID", err)
		return
	}
	brackets, err := h.playoffs.ListBrackets(r.Context(), tid)
	if err != nil {
		httputil.Error(w, "Failed to list brackets", err)
		return
	}
	if brackets == nil {
		brackets = []bracket.Bracket{}
	}
	httputil.WriteJSON(w, http.StatusOK, brackets)
}

func (h *handler) buildBracket(w http.ResponseWriter, r *http.Request) {
	tid, err := tournamentID(r)
	if err != nil {
		httputil.BadRequest(w, "Invalid tournament ID", err)
		return
	}
	var in service.BuildInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httputil.BadRequest(w, "Invalid bracket request", err)
		return
	}
	in.TournamentID = tid

	b, tree, err := h.playoffs.BuildBracket(r.Context(), in)
	if err != nil {
		httputil.Error(w, "Failed to build bracket", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, struct {
		Bracket *bracket.Bracket `json:"bracket"`
		Slots   []bracket.Slot   `json:"slots"`
	}{b, tree.Slots()})
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	id, err := bracketID(r)
	if err != nil {
		httputil.BadRequest(w, "Invalid bracket", err)
		return
	}
	status, err := h.playoffs.Status(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to get bracket", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *handler) deleteBracket(w http.ResponseWriter, r *http.Request) {
	id, err := bracketID(r)
	if err != nil {
		httputil.BadRequest(w, "Invalid bracket", err)
		return
	}
	if err := h.playoffs.DeleteBracket(r.Context(), id); err != nil {
		httputil.Error(w, "Failed to delete bracket", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func layoutOptions(r *http.Request) (views.Options, error) {
	var (
		opts views.Options
		err  error
	)
	if opts.RowsPerTeam, err = queryInt(r, "rows", defaultRowsPerTeam); err != nil {
		return opts, err
	}
	if opts.FirstRound, err = queryInt(r, "first", bracket.FirstRound); err != nil {
		return opts, err
	}
	if opts.LastRound, err = queryInt(r, "last", 0); err != nil {
		return opts, err
	}
	opts.Style = views.CornerStyle(r.URL.Query().Get("style"))

	opts.ShowFinalScores = true
	if v := r.URL.Query().Get("final_scores"); v != "" {
		if opts.ShowFinalScores, err = strconv.ParseBool(v); err != nil {
			return opts, fmt.Errorf("final_scores must be true or false")
		}
	}
	return opts, nil
}

func (h *handler) loadLayout(w http.ResponseWriter, r *http.Request) (*views.BracketData, bool) {
	id, err := bracketID(r)
	if err != nil {
		httputil.BadRequest(w, "Invalid bracket", err)
		return nil, false
	}
	opts, err := layoutOptions(r)
	if err != nil {
		httputil.BadRequest(w, "Invalid layout options", err)
		return nil, false
	}
	data, err := h.playoffs.Layout(r.Context(), id, opts)
	if err != nil {
		httputil.Error(w, "Failed to lay out bracket", err)
		return nil, false
	}
	return data, true
}

func (h *handler) layout(w http.ResponseWriter, r *http.Request) {
	if data, ok := h.loadLayout(w, r); ok {
		httputil.WriteJSON(w, http.StatusOK, data)
	}
}

func (h *handler) view(w http.ResponseWriter, r *http.Request) {
	data, ok := h.loadLayout(w, r)
	if !ok {
		return
	}
	if err := views.Render(w, r, views.BracketTable(*data)); err != nil {
		httputil.InternalServerError(w, "Failed to render bracket", err)
	}
}

func (h *handler) resolve(w http.ResponseWriter, r *http.Request) {
	id, err := bracketID(r)
	if err != nil {
		httputil.BadRequest(w, "Invalid bracket", err)
		return
	}
	round, err := intParam(r, "round")
	if err != nil {
		httputil.BadRequest(w, "Invalid round", err)
		return
	}
	match, err := intParam(r, "match")
	if err != nil {
		httputil.BadRequest(w, "Invalid match", err)
		return
	}
	run, err := queryInt(r, "run", 0)
	if err != nil {
		httputil.BadRequest(w, "Invalid run", err)
		return
	}

	outcome, err := h.playoffs.ResolveAndAdvance(r.Context(), id, round, match, run)
	if err != nil {
		httputil.Error(w, "Failed to resolve match", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, outcome)
}

func (h *handler) ruling(w http.ResponseWriter, r *http.Request) {
	id, err := bracketID(r)
	if err != nil {
		httputil.BadRequest(w, "Invalid bracket", err)
		return
	}
	round, err := intParam(r, "round")
	if err != nil {
		httputil.BadRequest(w, "Invalid round", err)
		return
	}
	match, err := intParam(r, "match")
	if err != nil {
		httputil.BadRequest(w, "Invalid match", err)
		return
	}
	var body struct {
		Team int `json:"team"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.BadRequest(w, "Invalid ruling", err)
		return
	}

	advanced, err := h.playoffs.RecordRuling(r.Context(), id, round, match, body.Team)
	if err != nil {
		httputil.Error(w, "Failed to record ruling", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, advanced)
}

func (h *handler) watch(w http.ResponseWriter, r *http.Request) {
	id, err := bracketID(r)
	if err != nil {
		httputil.BadRequest(w, "Invalid bracket", err)
		return
	}
	h.hub.ServeWs(w, r, live.RoomFor(id))
}
