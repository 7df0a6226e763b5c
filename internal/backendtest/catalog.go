package backendtest

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Resource kinds served under /api/<kind>.
const (
	Movies    = "movies"
	Theatres  = "theatres"
	Screens   = "screens"
	Shows     = "shows"
	Bookings  = "bookings"
	Customers = "customers"
)

type item = map[string]any

// resource is one in-memory table keyed by its id field.
type resource struct {
	singular string
	idKey    string
	nextID   int
	items    map[int]item
}

func newResource(singular, idKey string, seed ...item) *resource {
	r := &resource{singular: singular, idKey: idKey, items: map[int]item{}}
	for _, it := range seed {
		r.nextID++
		it[idKey] = r.nextID
		r.items[r.nextID] = it
	}
	return r
}

func (r *resource) sorted() []item {
	out := make([]item, 0, len(r.items))
	for _, id := range slices.Sorted(maps.Keys(r.items)) {
		out = append(out, maps.Clone(r.items[id]))
	}
	return out
}

func seedResources() map[string]*resource {
	return map[string]*resource{
		Movies: newResource("movie", "movieId",
			item{"movieName": "Inception", "movieGenre": "Sci-Fi", "movieHours": "2h 28m", "language": "English"},
			item{"movieName": "Dangal", "movieGenre": "Drama", "movieHours": "2h 41m", "language": "Hindi"},
		),
		Theatres: newResource("theatre", "theatreId",
			item{"theatreName": "PVR Phoenix", "theatreCity": "Mumbai", "managerName": "Ravi"},
			item{"theatreName": "INOX Nehru Place", "theatreCity": "Delhi", "managerName": "Anita"},
		),
		Screens: newResource("screen", "screenId",
			item{"theatreId": 1, "screenName": "Audi 1", "rows": 10, "columns": 12},
		),
		Shows: newResource("show", "showId",
			item{"showName": "Evening", "showStartTime": "2025-11-03T18:00:00", "showEndTime": "2025-11-03T20:30:00", "screenId": 1, "theatreId": 1, "movieId": 1},
		),
		Bookings: newResource("booking", "bookingId",
			item{"showId": 10, "bookingDate": "2025-11-03", "totalCost": 450.0, "transactionStatus": "PAID", "customerId": AdminUserID},
		),
		Customers: newResource("customer", "customerId",
			item{"customerName": "Admin", "email": AdminEmail},
		),
	}
}

// Item returns a copy of the stored item of kind with id.
func (s *Server) Item(kind string, id int) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.resources[kind].items[id]
	if !ok {
		return nil, false
	}
	return maps.Clone(it), true
}

func (s *Server) routeResource(mux *http.ServeMux, kind string, guard func(http.HandlerFunc) http.HandlerFunc) {
	base := "/api/" + kind
	mux.HandleFunc("GET "+base, s.protected(s.handleList(kind, nil)))
	mux.HandleFunc("GET "+base+"/{id}", s.protected(s.handleGet(kind)))
	mux.HandleFunc("POST "+base, guard(s.handleCreate(kind)))
	mux.HandleFunc("PUT "+base+"/{id}", s.protected(s.handleUpdate(kind)))
	mux.HandleFunc("DELETE "+base+"/{id}", s.protected(s.handleDelete(kind)))
}

// handleList answers every item of kind that match accepts, or all of them
// when match is nil.
func (s *Server) handleList(kind string, match func(r *http.Request, it item) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		all := s.resources[kind].sorted()
		s.mu.Unlock()

		out := make([]item, 0, len(all))
		for _, it := range all {
			if match == nil || match(r, it) {
				out = append(out, it)
			}
		}

		if kind == Movies {
			w.Header().Set("Cache-Control", "private, max-age=60")
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleGet(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		s.mu.Lock()
		res := s.resources[kind]
		it, found := res.items[id]
		if found {
			it = maps.Clone(it)
		}
		s.mu.Unlock()

		if !found {
			notFound(w, res.singular, id)
			return
		}
		writeJSON(w, http.StatusOK, it)
	}
}

func (s *Server) handleCreate(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var it item
		if err := json.NewDecoder(r.Body).Decode(&it); err != nil || it == nil {
			writeJSON(w, http.StatusBadRequest, item{"error": "invalid " + strings.TrimSuffix(kind, "s")})
			return
		}
		delete(it, "password")

		s.mu.Lock()
		res := s.resources[kind]
		res.nextID++
		it[res.idKey] = res.nextID
		res.items[res.nextID] = it
		out := maps.Clone(it)
		s.mu.Unlock()

		writeJSON(w, http.StatusCreated, out)
	}
}

func (s *Server) handleUpdate(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		var it item
		if err := json.NewDecoder(r.Body).Decode(&it); err != nil || it == nil {
			writeJSON(w, http.StatusBadRequest, item{"error": "invalid " + strings.TrimSuffix(kind, "s")})
			return
		}
		delete(it, "password")

		s.mu.Lock()
		res := s.resources[kind]
		if _, found := res.items[id]; !found {
			s.mu.Unlock()
			notFound(w, res.singular, id)
			return
		}
		it[res.idKey] = id
		res.items[id] = it
		out := maps.Clone(it)
		s.mu.Unlock()

		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleDelete(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		s.mu.Lock()
		res := s.resources[kind]
		_, found := res.items[id]
		delete(res.items, id)
		s.mu.Unlock()

		if !found {
			notFound(w, res.singular, id)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleMoviesByTheatre answers the movies that have a show at the theatre.
func (s *Server) handleMoviesByTheatre(w http.ResponseWriter, r *http.Request) {
	theatre, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	showing := map[int]bool{}
	for _, show := range s.resources[Shows].items {
		if intField(show, "theatreId") == theatre {
			showing[intField(show, "movieId")] = true
		}
	}
	s.mu.Unlock()

	s.handleList(Movies, func(_ *http.Request, it item) bool {
		return showing[intField(it, "movieId")]
	})(w, r)
}

func (s *Server) handlePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount <= 0 || req.Currency == "" {
		writeJSON(w, http.StatusBadRequest, item{"error": "Amount and currency are required"})
		return
	}

	id := "pi_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	writeJSON(w, http.StatusOK, item{
		"paymentIntentId": id,
		"clientSecret":    id + "_secret",
	})
}

// matchPathID accepts items whose key equals the {id} path value.
func matchPathID(key string) func(r *http.Request, it item) bool {
	return func(r *http.Request, it item) bool {
		id, err := strconv.Atoi(r.PathValue("id"))
		return err == nil && intField(it, key) == id
	}
}

func matchCity(r *http.Request, it item) bool {
	city, _ := it["theatreCity"].(string)
	return strings.EqualFold(city, r.PathValue("city"))
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, item{"error": fmt.Sprintf("invalid id %q", r.PathValue("id"))})
		return 0, false
	}
	return id, true
}

func notFound(w http.ResponseWriter, singular string, id int) {
	writeJSON(w, http.StatusNotFound, item{"error": fmt.Sprintf("%s %d not found", singular, id)})
}

// intField reads a numeric field of a seeded or JSON decoded item.
func intField(it item, key string) int {
	switch v := it[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
