package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// Pay-on-delivery methods.
const (
	PayCash = "CASH"
	PayCard = "CARD"
)

// StoreSettings is the single store-wide settings object. Keys the console does not
// know are kept in Extra and written back untouched.
type StoreSettings struct {
	// Store info
	StoreName        string `json:"storeName"`
	StoreLogo        string `json:"storeLogo"`
	StorePhone       string `json:"storePhone"`
	StoreEmail       string `json:"storeEmail"`
	StoreAddress     string `json:"storeAddress"`
	InvoiceTitle     string `json:"invoiceTitle"`
	InvoiceTaxNumber string `json:"invoiceTaxNumber"`
	InvoiceTaxOffice string `json:"invoiceTaxOffice"`

	// Shipping and payment
	DeliveryFeeFixed       decimal.Decimal `json:"deliveryFeeFixed"`
	DeliveryFreeThreshold  decimal.Decimal `json:"deliveryFreeThreshold"`
	PayOnDeliveryEnabled   bool            `json:"payOnDeliveryEnabled"`
	PayOnDeliveryMethods   []string        `json:"payOnDeliveryMethods"`
	MinOrderAmount         decimal.Decimal `json:"minOrderAmount"`
	OrderAcceptingEnabled  bool            `json:"orderAcceptingEnabled"`
	ReturnCancelPolicyText string          `json:"returnCancelPolicyText"`

	// Operation
	WorkingHoursEnabled      bool     `json:"workingHoursEnabled"`
	WorkingHoursStart        string   `json:"workingHoursStart"`
	WorkingHoursEnd          string   `json:"workingHoursEnd"`
	EstimatedDeliveryMinutes int      `json:"estimatedDeliveryMinutes"`
	DeliveryZones            []string `json:"deliveryZones"`
	OrderClosedMessage       string   `json:"orderClosedMessage"`

	// Content
	FAQText           string `json:"faqText"`
	TermsText         string `json:"termsText"`
	KVKKText          string `json:"kvkkText"`
	DistanceSalesText string `json:"distanceSalesText"`

	// System
	MaintenanceModeEnabled bool   `json:"maintenanceModeEnabled"`
	MaintenanceMessage     string `json:"maintenanceMessage"`

	Extra map[string]json.RawMessage `json:"-"`
}

type storeSettingsFields StoreSettings

// UnmarshalJSON decodes the known fields and keeps everything else in Extra.
func (s *StoreSettings) UnmarshalJSON(data []byte) error {
	var fields storeSettingsFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	known, err := knownSettingsKeys()
	if err != nil {
		return err
	}
	for key := range known {
		delete(all, key)
	}
	*s = StoreSettings(fields)
	if len(all) > 0 {
		s.Extra = all
	}
	return nil
}

// MarshalJSON writes the known fields over any preserved extra keys.
func (s StoreSettings) MarshalJSON() ([]byte, error) {
	encoded, err := json.Marshal(storeSettingsFields(s))
	if err != nil {
		return nil, err
	}
	if len(s.Extra) == 0 {
		return encoded, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &merged); err != nil {
		return nil, err
	}
	for key, value := range s.Extra {
		if _, ok := merged[key]; !ok {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

func knownSettingsKeys() (map[string]json.RawMessage, error) {
	encoded, err := json.Marshal(storeSettingsFields{})
	if err != nil {
		return nil, fmt.Errorf("settings keys: %w", err)
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &keys); err != nil {
		return nil, fmt.Errorf("settings keys: %w", err)
	}
	return keys, nil
}

// AcceptsPayment reports whether method is enabled for pay on delivery.
func (s StoreSettings) AcceptsPayment(method string) bool {
	if !s.PayOnDeliveryEnabled {
		return false
	}
	for _, m := range s.PayOnDeliveryMethods {
		if m == method {
			return true
		}
	}
	return false
}

// Settings is the gateway for /admin/settings and system maintenance.
type Settings struct {
	c *Client
}

// Get fetches the full settings object.
func (g Settings) Get(ctx context.Context) (StoreSettings, error) {
	var settings StoreSettings
	err := g.c.doJSON(ctx, call{method: http.MethodGet, path: "/admin/settings"}, &settings)
	return settings, err
}

// Update re-reads the current settings, applies mutate and writes the merged object
// back, so a screen editing one section never clobbers another.
func (g Settings) Update(ctx context.Context, mutate func(*StoreSettings)) (StoreSettings, error) {
	current, err := g.Get(ctx)
	if err != nil {
		return StoreSettings{}, err
	}
	if mutate != nil {
		mutate(&current)
	}
	var saved StoreSettings
	if err := g.c.doJSON(ctx, call{method: http.MethodPatch, path: "/admin/settings", body: current}, &saved); err != nil {
		return StoreSettings{}, err
	}
	return saved, nil
}

// ClearCache asks the backend to drop its caches.
func (g Settings) ClearCache(ctx context.Context) error {
	return g.c.doJSON(ctx, call{method: http.MethodPost, path: "/admin/system/cache/clear"}, nil)
}
