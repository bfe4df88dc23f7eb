package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tanmaysrivastava45/Code-Sense/internal/store"
	"github.com/tanmaysrivastava45/Code-Sense/pkg/auth"
)

// AnalysisAPI serves the stored analysis history. Producing the analysis
// text is an external concern; clients post completed results here.
type AnalysisAPI struct {
	DB AnalysisStore
}

type analysisReq struct {
	ProblemName     string `json:"problemName"`
	Code            string `json:"code"`
	Language        string `json:"language"`
	SyntaxErrors    string `json:"syntaxErrors"`
	TimeComplexity  string `json:"timeComplexity"`
	SpaceComplexity string `json:"spaceComplexity"`
	Explanation     string `json:"explanation"`
	Improvements    string `json:"improvements"`
}

type analysisDTO struct {
	ID              string    `json:"id"`
	ProblemName     string    `json:"problemName"`
	Code            string    `json:"code"`
	Language        string    `json:"language"`
	SyntaxErrors    string    `json:"syntaxErrors"`
	TimeComplexity  string    `json:"timeComplexity"`
	SpaceComplexity string    `json:"spaceComplexity"`
	Explanation     string    `json:"explanation"`
	Improvements    string    `json:"improvements"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toDTO(a store.Analysis) analysisDTO {
	return analysisDTO{
		ID:              a.ID,
		ProblemName:     a.ProblemName,
		Code:            a.Code,
		Language:        a.Language,
		SyntaxErrors:    a.SyntaxErrors,
		TimeComplexity:  a.TimeComplexity,
		SpaceComplexity: a.SpaceComplexity,
		Explanation:     a.Explanation,
		Improvements:    a.Improvements,
		CreatedAt:       a.CreatedAt,
	}
}

// Save stores one completed analysis for the authenticated user.
func (a *AnalysisAPI) Save(w http.ResponseWriter, r *http.Request) {
	var req analysisReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	saved, err := a.DB.SaveAnalysis(r.Context(), store.Analysis{
		UserID:          auth.UserID(r.Context()),
		ProblemName:     req.ProblemName,
		Code:            req.Code,
		Language:        req.Language,
		SyntaxErrors:    req.SyntaxErrors,
		TimeComplexity:  req.TimeComplexity,
		SpaceComplexity: req.SpaceComplexity,
		Explanation:     req.Explanation,
		Improvements:    req.Improvements,
	})
	if err != nil {
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, toDTO(saved))
}

// History returns the user's latest 20 analyses.
func (a *AnalysisAPI) History(w http.ResponseWriter, r *http.Request) {
	list, err := a.DB.AnalysisHistory(r.Context(), auth.UserID(r.Context()), 20)
	if err != nil {
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	out := make([]analysisDTO, 0, len(list))
	for _, item := range list {
		out = append(out, toDTO(item))
	}
	writeJSON(w, out)
}

// Stats reports the user's analysis count and most recent run.
func (a *AnalysisAPI) Stats(w http.ResponseWriter, r *http.Request) {
	count, last, err := a.DB.AnalysisStats(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"totalAnalyses": count,
		"lastAnalysis":  last,
	})
}

// Delete removes one of the user's own records.
func (a *AnalysisAPI) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	if err := a.DB.DeleteAnalysis(r.Context(), id, auth.UserID(r.Context())); err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}
