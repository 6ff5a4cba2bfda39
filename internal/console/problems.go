package console

import (
	"net/http"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

// ProblemView adds the known-error wiki affordance to a problem.
type ProblemView struct {
	domain.Problem
	KnowledgeBaseURL string `json:"knowledge_base_url,omitempty"`
}

func problemView(p domain.Problem) ProblemView {
	v := ProblemView{Problem: p}
	if url, ok := p.WikiReference(); ok {
		v.KnowledgeBaseURL = url
	}
	return v
}

// ListProblems handles GET /problems.
func (h *Handler) ListProblems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	listing, err := h.problems.List(r.Context(), domain.ProblemFilter{
		FixStatus: q.Get("fix_status"),
		Priority:  q.Get("priority"),
		Search:    q.Get("search"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	views := make([]ProblemView, 0, len(listing.Problems))
	for _, p := range listing.Problems {
		views = append(views, problemView(p))
	}
	httputil.Respond(w, http.StatusOK, httputil.Envelope{Data: views, Demo: listing.Demo})
}

// GetProblem handles GET /problems/{id}.
func (h *Handler) GetProblem(w http.ResponseWriter, r *http.Request) {
	detail, err := h.problems.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.Respond(w, http.StatusOK, httputil.Envelope{Data: problemView(detail.Problem), Demo: detail.Demo})
}
