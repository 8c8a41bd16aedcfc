package handler

import (
	"net/http"
	"time"

	"rental-agreements-go/internal/store"

	"github.com/shopspring/decimal"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userView struct {
	Id    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        userView  `json:"user"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, expiresAt, err := h.tokens.Generate(user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        userView{Id: user.Id, Name: user.Name, Email: user.Email, Role: user.Role},
	})
}

type propertyRequest struct {
	Title        string          `json:"title"`
	Address      string          `json:"address"`
	City         string          `json:"city"`
	MonthlyPrice decimal.Decimal `json:"monthly_price"`
}

type propertyView struct {
	Id           string          `json:"id"`
	LandlordId   string          `json:"landlord_id"`
	Title        string          `json:"title"`
	Address      string          `json:"address"`
	City         string          `json:"city"`
	MonthlyPrice decimal.Decimal `json:"monthly_price"`
}

func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var req propertyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	property, err := h.svc.CreateProperty(r.Context(), caller(r), store.CreatePropertyParams{
		Title:        req.Title,
		Address:      req.Address,
		City:         req.City,
		MonthlyPrice: req.MonthlyPrice,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, propertyView{
		Id:           property.Id,
		LandlordId:   property.LandlordId,
		Title:        property.Title,
		Address:      property.Address,
		City:         property.City,
		MonthlyPrice: property.MonthlyPrice,
	})
}
