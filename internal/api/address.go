package api

import (
	"errors"
	"net/http"

	"fooddelivery-client/internal/address"
	"fooddelivery-client/internal/envelope"
	"fooddelivery-client/internal/validation"
)

const msgAddressIncomplete = "Please complete your delivery address"

type addressView struct {
	address.DeliveryAddress
	Display string `json:"display"`
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
	Address   string   `json:"address,omitempty" validate:"max=300"`
}

func (h *handler) getAddress(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	defer s.Release()

	addr, err := s.Address.Current(r.Context())
	switch {
	case errors.Is(err, address.ErrNoAddress):
		envelope.WriteError(w, envelope.CodeNotFound, "No delivery address saved")
	case err != nil:
		writeInternal(w, r, err)
	default:
		envelope.Write(w, envelope.OK(addressView{DeliveryAddress: *addr, Display: addr.String()}, ""))
	}
}

func (h *handler) saveAddress(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	defer s.Release()
	var in address.DeliveryAddress
	if !decodeBody(w, r, &in) {
		return
	}

	addr, err := s.Address.Save(r.Context(), in)
	if err != nil {
		if len(validation.Fields(err)) > 0 {
			envelope.Write(w, envelope.Failf[any](envelope.CodeValidation,
				"%s: %s", msgAddressIncomplete, validation.Message(err)))
			return
		}
		writeInternal(w, r, err)
		return
	}
	envelope.Write(w, envelope.OK(addressView{DeliveryAddress: *addr, Display: addr.String()}, "Address saved"))
}

func (h *handler) clearAddress(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	defer s.Release()
	if err := s.Address.Clear(r.Context()); err != nil {
		writeInternal(w, r, err)
		return
	}
	envelope.Write(w, envelope.OK[any](nil, "Address removed"))
}

func (h *handler) getLocation(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	defer s.Release()

	loc, err := s.Address.CachedLocation(r.Context())
	switch {
	case errors.Is(err, address.ErrNoLocation), errors.Is(err, address.ErrLocationExpired):
		envelope.WriteError(w, envelope.CodeNotFound, "Location unknown, please share it again")
	case err != nil:
		writeInternal(w, r, err)
	default:
		envelope.Write(w, envelope.OK(loc, ""))
	}
}

func (h *handler) saveLocation(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	defer s.Release()
	var in locationRequest
	if !decodeBody(w, r, &in) {
		return
	}
	if err := validation.Struct(in); err != nil {
		envelope.WriteError(w, envelope.CodeValidation, validation.Message(err))
		return
	}

	loc := address.Location{Latitude: *in.Latitude, Longitude: *in.Longitude, Address: in.Address}
	if err := s.Address.SaveLocation(r.Context(), loc); err != nil {
		writeInternal(w, r, err)
		return
	}
	envelope.Write(w, envelope.OK[any](nil, "Location saved"))
}
