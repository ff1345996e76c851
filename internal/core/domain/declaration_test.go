package domain_test

import (
	"testing"
	"time"

	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name    string
		from    domain.DeclarationStatus
		next    domain.DeclarationStatus
		allowed bool
	}{
		{"draft to submitted", domain.StatusDraft, domain.StatusSubmitted, true},
		{"draft to locked", domain.StatusDraft, domain.StatusLocked, true},
		{"draft cannot skip to approved", domain.StatusDraft, domain.StatusApproved, false},
		{"submitted to under review", domain.StatusSubmitted, domain.StatusUnderReview, true},
		{"submitted to approved", domain.StatusSubmitted, domain.StatusApproved, true},
		{"submitted to rejected", domain.StatusSubmitted, domain.StatusRejected, true},
		{"under review to approved", domain.StatusUnderReview, domain.StatusApproved, true},
		{"approved to sent", domain.StatusApproved, domain.StatusSentToGateway, true},
		{"approved back to draft", domain.StatusApproved, domain.StatusDraft, true},
		{"approved cannot resubmit", domain.StatusApproved, domain.StatusSubmitted, false},
		{"rejected to submitted", domain.StatusRejected, domain.StatusSubmitted, true},
		{"locked unlocks to draft", domain.StatusLocked, domain.StatusDraft, true},
		{"sent to gateway accepted", domain.StatusSentToGateway, domain.StatusGatewayAccepted, true},
		{"sent to gateway rejected", domain.StatusSentToGateway, domain.StatusGatewayRejected, true},
		{"gateway accepted is terminal-ish", domain.StatusGatewayAccepted, domain.StatusSubmitted, false},
		{"gateway rejected to submitted", domain.StatusGatewayRejected, domain.StatusSubmitted, true},
		{"no self transition", domain.StatusDraft, domain.StatusDraft, false},
		{"unknown status has no transitions", domain.DeclarationStatus("BOGUS"), domain.StatusDraft, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, domain.CanTransition(tc.from, tc.next))
		})
	}
}

func TestIsLockedStatus(t *testing.T) {
	locked := []domain.DeclarationStatus{
		domain.StatusSubmitted,
		domain.StatusApproved,
		domain.StatusLocked,
		domain.StatusSentToGateway,
		domain.StatusGatewayAccepted,
	}
	// UNDER_REVIEW is outside the locked set; the service layer still
	// refuses edits there as a transition conflict.
	notLocked := []domain.DeclarationStatus{
		domain.StatusDraft,
		domain.StatusUnderReview,
		domain.StatusRejected,
		domain.StatusGatewayRejected,
	}

	for _, s := range locked {
		assert.True(t, domain.IsLockedStatus(s), "expected %s to be locked", s)
	}
	for _, s := range notLocked {
		assert.False(t, domain.IsLockedStatus(s), "expected %s to be outside the locked set", s)
	}
}

func TestRequiredDocumentCategories(t *testing.T) {
	sea := domain.RequiredDocumentCategories(domain.TransportSea)
	assert.Contains(t, sea, domain.DocCategoryInvoice)
	assert.Contains(t, sea, domain.DocCategoryPackingList)
	assert.Contains(t, sea, domain.DocCategoryBillOfLading)
	assert.NotContains(t, sea, domain.DocCategoryAirwayBill)

	air := domain.RequiredDocumentCategories(domain.TransportAir)
	assert.Contains(t, air, domain.DocCategoryAirwayBill)
	assert.NotContains(t, air, domain.DocCategoryBillOfLading)

	land := domain.RequiredDocumentCategories(domain.TransportLand)
	assert.Len(t, land, 2)
}

func TestMissingDocumentCategories(t *testing.T) {
	decl := &domain.Declaration{
		TransportMode: domain.TransportSea,
		SupportingDocuments: []domain.SupportingDocument{
			{Category: domain.DocCategoryInvoice, DocumentNo: "INV-1", DocumentDate: time.Now()},
		},
	}

	missing := decl.MissingDocumentCategories()
	assert.Contains(t, missing, domain.DocCategoryPackingList)
	assert.Contains(t, missing, domain.DocCategoryBillOfLading)
	assert.NotContains(t, missing, domain.DocCategoryInvoice)

	decl.SupportingDocuments = append(decl.SupportingDocuments,
		domain.SupportingDocument{Category: domain.DocCategoryPackingList, DocumentNo: "PL-1", DocumentDate: time.Now()},
		domain.SupportingDocument{Category: domain.DocCategoryBillOfLading, DocumentNo: "BL-1", DocumentDate: time.Now()},
	)
	assert.Empty(t, decl.MissingDocumentCategories())
}

func TestEditable(t *testing.T) {
	decl := &domain.Declaration{Status: domain.StatusDraft}
	assert.True(t, decl.Editable())

	decl.Status = domain.StatusSubmitted
	assert.False(t, decl.Editable())

	decl.Status = domain.StatusRejected
	assert.True(t, decl.Editable())
}

func TestHoldsAPI(t *testing.T) {
	decl := &domain.Declaration{}
	assert.False(t, decl.HoldsAPI())

	decl.APINumber = "API-U-123456"
	assert.True(t, decl.HoldsAPI())
}
