package handlers

import (
	"errors"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/sedipro/sufragio/admin"
	"github.com/sedipro/sufragio/errs"
	"github.com/sedipro/sufragio/importer"
	"github.com/sedipro/sufragio/middleware"
	"github.com/sedipro/sufragio/models"
)

// multipartSlack covers boundaries and part headers around the file
const multipartSlack = 64 << 10

// AdminHandler exposes the administrative service. Every route is mounted
// behind Guard.RequireAdmin.
type AdminHandler struct {
	svc *admin.Service
}

func NewAdminHandler(svc *admin.Service) *AdminHandler {
	return &AdminHandler{svc: svc}
}

func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
}

// GetElection handles GET /admin/election
func (h *AdminHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.svc.Config(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	noStore(w)
	middleware.JSONResponse(w, http.StatusOK, cfg)
}

// UpdateStatus handles PATCH /admin/election/status
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateElectionStatusRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	cfg, err := h.svc.SetStatus(r.Context(), req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, cfg)
}

// UpdatePosition handles PATCH /admin/election/position
func (h *AdminHandler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	var req models.UpdatePositionStateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	cfg, err := h.svc.SetPositionState(r.Context(), req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, cfg)
}

// ListVoters handles GET /admin/voters
func (h *AdminHandler) ListVoters(w http.ResponseWriter, r *http.Request) {
	voters, err := h.svc.ListVoters(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if voters == nil {
		voters = []models.Voter{}
	}
	noStore(w)
	middleware.JSONResponse(w, http.StatusOK, voters)
}

// CreateVoter handles POST /admin/voters
func (h *AdminHandler) CreateVoter(w http.ResponseWriter, r *http.Request) {
	var req models.CreateVoterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	v, err := h.svc.CreateVoter(r.Context(), req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, v)
}

// UpdateVoter handles PATCH /admin/voters/{dni}
func (h *AdminHandler) UpdateVoter(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateVoterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	v, err := h.svc.UpdateVoter(r.Context(), r.PathValue("dni"), req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, v)
}

// EnableAll handles POST /admin/voters/enable-all
func (h *AdminHandler) EnableAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.EnableAll(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.EnableAllResponse{
		Enabled: n,
		Message: "Votantes habilitados correctamente.",
	})
}

// ImportVoters handles POST /admin/voters/import with a multipart "file"
// field holding a CSV or XLSX registry.
func (h *AdminHandler) ImportVoters(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, importer.MaxFileSize+multipartSlack)

	if err := r.ParseMultipartForm(importer.MaxFileSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, errs.BadRequest("El archivo supera el tamaño máximo de %s.", humanize.IBytes(importer.MaxFileSize)))
			return
		}
		middleware.WriteError(w, errs.BadRequest("Se requiere un archivo Excel o CSV."))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, errs.BadRequest("Se requiere un archivo Excel o CSV."))
		return
	}
	defer file.Close()

	if header.Size > importer.MaxFileSize {
		middleware.WriteError(w, errs.BadRequest("El archivo supera el tamaño máximo de %s.", humanize.IBytes(importer.MaxFileSize)))
		return
	}

	voters, err := h.svc.ImportVoters(r.Context(), file)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.ImportResponse{Imported: len(voters)})
}

// ResetVotes handles POST /admin/voters/reset-votes
func (h *AdminHandler) ResetVotes(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ResetVotes(r.Context()); err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Votos y sesiones reseteados."})
}

// ListCandidates handles GET /admin/candidates
func (h *AdminHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListCandidates(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if list == nil {
		list = []models.Candidate{}
	}
	noStore(w)
	middleware.JSONResponse(w, http.StatusOK, list)
}

// CreateCandidate handles POST /admin/candidates
func (h *AdminHandler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	c, err := h.svc.CreateCandidate(r.Context(), req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, c)
}

// UpdateCandidate handles PATCH /admin/candidates/{id}
func (h *AdminHandler) UpdateCandidate(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	c, err := h.svc.UpdateCandidate(r.Context(), r.PathValue("id"), req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, c)
}

// DeleteCandidate handles DELETE /admin/candidates/{id}
func (h *AdminHandler) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCandidate(r.Context(), r.PathValue("id")); err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Candidato eliminado."})
}
