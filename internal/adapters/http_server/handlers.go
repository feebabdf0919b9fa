package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotelier/internal/app"
	"hotelier/internal/domain"
)

const (
	maxImageFiles   = 6
	maxMultipartMem = 32 << 20
)

type Handlers struct{ Svc *app.HotelService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers, jwtSecret []byte) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/hotels/{id}", h.getHotelPublic)

	s.mux.Route("/v1/my/hotels", func(r chi.Router) {
		r.Use(Auth(jwtSecret))
		r.Post("/", h.createHotel)
		r.Get("/", h.listHotels)
		r.Get("/{id}", h.getHotel)
		r.Put("/{id}", h.updateHotel)
		r.Post("/{id}/price", h.adjustPrice)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// Upload and persistence failures surface as a generic 500; details stay in
// the server log only.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
	case errors.Is(err, domain.ErrConflict):
		writeProblem(w, http.StatusConflict, "Conflict", "hotel was modified concurrently, retry")
	default:
		log.Error().Err(err).Msg("hotel operation failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// ---- response shape ----

type hotelJSON struct {
	ID            string    `json:"id"`
	HotelID       string    `json:"hotelId"`
	OwnerID       string    `json:"ownerId"`
	Name          string    `json:"name"`
	City          string    `json:"city"`
	Country       string    `json:"country"`
	Description   string    `json:"description"`
	Type          string    `json:"type"`
	PricePerNight float64   `json:"pricePerNight"`
	Facilities    []string  `json:"facilities"`
	Images        []string  `json:"imageUrls"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

func toJSON(h domain.Hotel) hotelJSON {
	return hotelJSON{
		ID:            h.ID,
		HotelID:       h.HotelID,
		OwnerID:       h.OwnerID,
		Name:          h.Name,
		City:          h.City,
		Country:       h.Country,
		Description:   h.Description,
		Type:          h.Type,
		PricePerNight: h.PricePerNight,
		Facilities:    h.Facilities,
		Images:        h.Images,
		LastUpdated:   h.UpdatedAt,
	}
}

func writeHotel(w http.ResponseWriter, status int, h domain.Hotel) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(toJSON(h)); err != nil {
		log.Error().Err(err).Msg("failed to write hotel body")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// ---- multipart parsing ----

func parseFacilities(vals []string) ([]string, error) {
	if len(vals) == 0 {
		return nil, errors.New("facilities must not be empty")
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, errors.New("facilities must not contain blank entries")
		}
		out = append(out, v)
	}
	return out, nil
}

func parseImageFiles(r *http.Request) ([]domain.ImageFile, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	fhs := r.MultipartForm.File["imageFiles"]
	if len(fhs) > maxImageFiles {
		return nil, errors.New("at most 6 image files per request")
	}
	files := make([]domain.ImageFile, 0, len(fhs))
	for _, fh := range fhs {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = http.DetectContentType(data)
		}
		files = append(files, domain.ImageFile{Data: data, ContentType: ct})
	}
	return files, nil
}

// ---- handlers ----

func (h *Handlers) createHotel(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMem); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Form", "expected multipart form data")
		return
	}
	get := func(k string) string { return strings.TrimSpace(r.FormValue(k)) }

	fields := domain.Hotel{
		HotelID:     get("hotelId"),
		Name:        get("name"),
		City:        get("city"),
		Country:     get("country"),
		Description: get("description"),
		Type:        get("type"),
	}
	for k, v := range map[string]string{
		"hotelId": fields.HotelID, "name": fields.Name, "city": fields.City,
		"country": fields.Country, "description": fields.Description, "type": fields.Type,
	} {
		if v == "" {
			writeProblem(w, http.StatusBadRequest, "Invalid Form", k+" is required")
			return
		}
	}

	price, err := strconv.ParseFloat(get("pricePerNight"), 64)
	if err != nil || price <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid Form", "pricePerNight must be a positive number")
		return
	}
	fields.PricePerNight = price

	fac, err := parseFacilities(r.MultipartForm.Value["facilities"])
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Form", err.Error())
		return
	}
	fields.Facilities = fac

	files, err := parseImageFiles(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Form", err.Error())
		return
	}

	created, err := h.Svc.Create(r.Context(), OwnerID(r.Context()), fields, files)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeHotel(w, http.StatusCreated, created)
}

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}
	hotels, err := h.Svc.List(r.Context(), OwnerID(r.Context()), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]hotelJSON, 0, len(hotels))
	for _, hh := range hotels {
		out = append(out, toJSON(hh))
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		log.Error().Err(err).Msg("failed to write listHotels body")
	}
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	hotel, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"), OwnerID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeHotel(w, http.StatusOK, hotel)
}

func (h *Handlers) getHotelPublic(w http.ResponseWriter, r *http.Request) {
	hotel, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"), "")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	etag, body := calcETagAndBody(toJSON(hotel))
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getHotel body")
	}
}

func (h *Handlers) updateHotel(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMem); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Form", "expected multipart form data")
		return
	}

	var patch domain.Patch
	setStr := func(k string, dst **string) {
		if vs, ok := r.MultipartForm.Value[k]; ok && len(vs) > 0 {
			v := strings.TrimSpace(vs[0])
			*dst = &v
		}
	}
	setStr("name", &patch.Name)
	setStr("city", &patch.City)
	setStr("country", &patch.Country)
	setStr("description", &patch.Description)
	setStr("type", &patch.Type)

	if vs, ok := r.MultipartForm.Value["pricePerNight"]; ok && len(vs) > 0 {
		price, err := strconv.ParseFloat(strings.TrimSpace(vs[0]), 64)
		if err != nil || price <= 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid Form", "pricePerNight must be a positive number")
			return
		}
		patch.PricePerNight = &price
	}
	if vs, ok := r.MultipartForm.Value["facilities"]; ok {
		fac, err := parseFacilities(vs)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid Form", err.Error())
			return
		}
		patch.Facilities = fac
	}

	files, err := parseImageFiles(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Form", err.Error())
		return
	}

	updated, err := h.Svc.Update(r.Context(), chi.URLParam(r, "id"), OwnerID(r.Context()), patch, files)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeHotel(w, http.StatusOK, updated)
}

func (h *Handlers) adjustPrice(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Factor float64 `json:"factor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "expected JSON with a numeric factor")
		return
	}
	if body.Factor <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "factor must be positive")
		return
	}
	updated, err := h.Svc.AdjustPrice(r.Context(), chi.URLParam(r, "id"), OwnerID(r.Context()), body.Factor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeHotel(w, http.StatusOK, updated)
}
