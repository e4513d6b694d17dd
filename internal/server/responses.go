package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"parking-lot-billing/internal/auth"
	"parking-lot-billing/internal/parking"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CheckInRequest struct {
	PlateNumber string `json:"plateNumber"`
	VehicleType string `json:"vehicleType"`
}

type SetRateRequest struct {
	HourlyRate *float64 `json:"hourlyRate"`
}

type ReservationRequest struct {
	Username    string `json:"username"`
	PlateNumber string `json:"plateNumber"`
	VehicleType string `json:"vehicleType"`
	SlotID      int    `json:"slotId"`
	Date        string `json:"date"`
}

type UpdateReservationRequest struct {
	Status string `json:"status"`
}

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   string       `json:"expires_at"`
	User        UserResponse `json:"user"`
}

type VehicleResponse struct {
	PlateNumber string `json:"plateNumber"`
	VehicleType string `json:"vehicleType"`
	CheckInTime string `json:"checkInTime"`
}

type SlotResponse struct {
	ID         int              `json:"id"`
	SlotNumber int              `json:"slotNumber"`
	IsOccupied bool             `json:"isOccupied"`
	Vehicle    *VehicleResponse `json:"vehicle,omitempty"`
}

type StatusResponse struct {
	Capacity  int            `json:"capacity"`
	Occupied  int            `json:"occupied"`
	Available int            `json:"available"`
	Slots     []SlotResponse `json:"slots"`
}

type TransactionResponse struct {
	ID           int64   `json:"id"`
	PlateNumber  string  `json:"plateNumber"`
	VehicleType  string  `json:"vehicleType"`
	SlotID       int     `json:"slotId"`
	CheckInTime  string  `json:"checkInTime"`
	CheckOutTime string  `json:"checkOutTime"`
	Duration     float64 `json:"duration"`
	Cost         float64 `json:"cost"`
}

type CheckOutResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	RateFound   bool                `json:"rateFound"`
}

type RateResponse struct {
	VehicleType string  `json:"vehicleType"`
	HourlyRate  float64 `json:"hourlyRate"`
}

type ReservationResponse struct {
	ID          int64  `json:"id"`
	RequesterID string `json:"requesterId"`
	Username    string `json:"username"`
	PlateNumber string `json:"plateNumber"`
	VehicleType string `json:"vehicleType"`
	SlotID      int    `json:"slotId"`
	Date        string `json:"date"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func toUserResponse(u auth.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     string(u.Role),
		Status:   string(u.Status),
	}
}

func toSlotResponse(s parking.Slot) SlotResponse {
	resp := SlotResponse{ID: s.Number, SlotNumber: s.Number, IsOccupied: s.IsOccupied}
	if s.IsOccupied && s.Vehicle != nil {
		resp.Vehicle = &VehicleResponse{
			PlateNumber: s.Vehicle.PlateNumber,
			VehicleType: s.Vehicle.Category,
			CheckInTime: formatTime(s.Vehicle.CheckInTime),
		}
	}
	return resp
}

func toTransactionResponse(t parking.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:           t.ID,
		PlateNumber:  t.PlateNumber,
		VehicleType:  t.Category,
		SlotID:       t.SlotNumber,
		CheckInTime:  formatTime(t.CheckInTime),
		CheckOutTime: formatTime(t.CheckOutTime),
		Duration:     t.DurationHours,
		Cost:         t.Cost,
	}
}

func toReservationResponse(r parking.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:          r.ID,
		RequesterID: r.RequesterID,
		Username:    r.Username,
		PlateNumber: r.PlateNumber,
		VehicleType: r.Category,
		SlotID:      r.SlotNumber,
		Date:        formatTime(r.Date),
		Status:      string(r.Status),
		CreatedAt:   formatTime(r.CreatedAt),
	}
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}
