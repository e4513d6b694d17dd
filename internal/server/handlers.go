package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"parking-lot-billing/internal/auth"
	"parking-lot-billing/internal/logging"
	"parking-lot-billing/internal/parking"
)

type Handler struct {
	serviceName string
	lot         *parking.InstrumentedLot
	users       *auth.Directory
	issuer      *auth.Issuer
	now         func() time.Time
}

func NewHandler(serviceName string, lot *parking.InstrumentedLot, users *auth.Directory, issuer *auth.Issuer, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{
		serviceName: serviceName,
		lot:         lot,
		users:       users,
		issuer:      issuer,
		now:         now,
	}
}

// writeDomainError maps core sentinel errors onto HTTP statuses. Anything
// unrecognised is logged and reported as a 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, parking.ErrNotFound):
		WriteError(ctx, w, http.StatusNotFound, err.Error())
	case errors.Is(err, parking.ErrConflict), errors.Is(err, parking.ErrAlreadyInitialized):
		WriteError(ctx, w, http.StatusConflict, err.Error())
	case errors.Is(err, parking.ErrInvalidInput):
		WriteError(ctx, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, parking.ErrUnauthorized):
		WriteError(ctx, w, http.StatusForbidden, err.Error())
	default:
		logging.Error(ctx, "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		WriteError(ctx, w, http.StatusInternalServerError, "Internal server error")
	}
}

func intParam(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	return n, err == nil
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": h.serviceName,
		"meta":    extractMeta(r.Context()),
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.Authenticate(ctx, req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		WriteError(ctx, w, http.StatusUnauthorized, "Invalid username or password")
		return
	case errors.Is(err, auth.ErrInactiveUser):
		WriteError(ctx, w, http.StatusForbidden, err.Error())
		return
	case err != nil:
		writeDomainError(w, r, err)
		return
	}

	token, expiresAt, err := h.issuer.Issue(user.Caller())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	logging.Info(ctx, "user logged in", "userId", user.ID, "role", string(user.Role))
	WriteSuccess(ctx, w, http.StatusOK, "Login successful", LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   formatTime(expiresAt),
		User:        toUserResponse(user),
	})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, _ := CallerFrom(ctx)

	users, err := h.users.List(ctx, caller)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	WriteSuccess(ctx, w, http.StatusOK, "Users retrieved successfully", resp)
}

func (h *Handler) ListSlots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	slots, err := h.lot.ListSlots(ctx)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	summary := parking.Summarize(slots)
	resp := StatusResponse{
		Capacity:  summary.Capacity,
		Occupied:  summary.Occupied,
		Available: summary.Available,
		Slots:     make([]SlotResponse, 0, len(slots)),
	}
	for _, slot := range slots {
		resp.Slots = append(resp.Slots, toSlotResponse(slot))
	}

	WriteSuccess(ctx, w, http.StatusOK, "Status retrieved successfully", resp)
}

func (h *Handler) GetSlot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slotNumber, ok := intParam(r, "slotNumber")
	if !ok {
		WriteError(ctx, w, http.StatusBadRequest, "Slot number must be an integer")
		return
	}

	slot, err := h.lot.Slots.Get(ctx, slotNumber)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	WriteSuccess(ctx, w, http.StatusOK, "Slot retrieved successfully", toSlotResponse(slot))
}

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slotNumber, ok := intParam(r, "slotNumber")
	if !ok {
		WriteError(ctx, w, http.StatusBadRequest, "Slot number must be an integer")
		return
	}

	var req CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	slot, err := h.lot.CheckIn(ctx, slotNumber, req.PlateNumber, req.VehicleType, h.now())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	WriteSuccess(ctx, w, http.StatusOK, "Vehicle checked in successfully", toSlotResponse(slot))
}

func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slotNumber, ok := intParam(r, "slotNumber")
	if !ok {
		WriteError(ctx, w, http.StatusBadRequest, "Slot number must be an integer")
		return
	}

	receipt, err := h.lot.CheckOut(ctx, slotNumber, h.now())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !receipt.RateFound {
		logging.Warn(ctx, "no rate configured for category", "vehicleType", receipt.Transaction.Category)
	}

	WriteSuccess(ctx, w, http.StatusOK, "Vehicle checked out successfully", CheckOutResponse{
		Transaction: toTransactionResponse(receipt.Transaction),
		RateFound:   receipt.RateFound,
	})
}

func (h *Handler) FindVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plate := chi.URLParam(r, "plate")
	if plate == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Plate number is required")
		return
	}

	slot, err := h.lot.FindByPlate(ctx, plate)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	WriteSuccess(ctx, w, http.StatusOK, "Vehicle found", toSlotResponse(slot))
}

func (h *Handler) ListRates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rates, err := h.lot.Rates.List(ctx)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := make([]RateResponse, 0, len(rates))
	for _, rate := range rates {
		resp = append(resp, RateResponse{VehicleType: rate.Category, HourlyRate: rate.HourlyRate})
	}
	WriteSuccess(ctx, w, http.StatusOK, "Pricing retrieved successfully", resp)
}

func (h *Handler) SetRate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, _ := CallerFrom(ctx)

	var req SetRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.HourlyRate == nil {
		WriteError(ctx, w, http.StatusBadRequest, "hourlyRate is required")
		return
	}

	entry, err := h.lot.SetRate(ctx, caller, chi.URLParam(r, "vehicleType"), *req.HourlyRate)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	WriteSuccess(ctx, w, http.StatusOK, "Pricing updated successfully", RateResponse{
		VehicleType: entry.Category,
		HourlyRate:  entry.HourlyRate,
	})
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	txns, err := h.lot.Transactions.ListAll(ctx)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := make([]TransactionResponse, 0, len(txns))
	for _, t := range txns {
		resp = append(resp, toTransactionResponse(t))
	}
	WriteSuccess(ctx, w, http.StatusOK, "Transactions retrieved successfully", resp)
}

func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reservations, err := h.lot.Reservations.ListAll(ctx)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := make([]ReservationResponse, 0, len(reservations))
	for _, res := range reservations {
		resp = append(resp, toReservationResponse(res))
	}
	WriteSuccess(ctx, w, http.StatusOK, "Reservations retrieved successfully", resp)
}

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, _ := CallerFrom(ctx)

	var req ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" {
		req.Username = caller.Username
	}

	reservation, err := h.lot.CreateReservation(ctx, parking.NewReservation{
		RequesterID: caller.ID,
		Username:    req.Username,
		PlateNumber: req.PlateNumber,
		Category:    req.VehicleType,
		SlotNumber:  req.SlotID,
		Date:        req.Date,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	WriteSuccess(ctx, w, http.StatusCreated, "Reservation created successfully", toReservationResponse(reservation))
}

func (h *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Reservation id must be an integer")
		return
	}

	var req UpdateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	reservation, err := h.lot.UpdateReservationStatus(ctx, id, parking.ReservationStatus(req.Status))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	WriteSuccess(ctx, w, http.StatusOK, "Reservation updated successfully", toReservationResponse(reservation))
}
