package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/kurniadi/customs_declaration_app/internal/apperrors"
	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	portsrepo "github.com/kurniadi/customs_declaration_app/internal/core/ports/repositories"
	portssvc "github.com/kurniadi/customs_declaration_app/internal/core/ports/services"
	"github.com/kurniadi/customs_declaration_app/internal/core/services"
	"github.com/kurniadi/customs_declaration_app/internal/dto"
	"github.com/kurniadi/customs_declaration_app/internal/utils/ceisaxml"
)

func actorWithRole(role domain.Role) domain.Actor {
	return domain.Actor{
		UserID:       uuid.NewString(),
		Name:         "Test Actor",
		Role:         role,
		Capabilities: domain.CapabilitiesForRole(role),
	}
}

func draftPIB() *domain.Declaration {
	now := time.Now().UTC()
	return &domain.Declaration{
		DeclarationID:  uuid.NewString(),
		DocumentType:   domain.DocTypePIB,
		TaxpayerID:     "011234567891000",
		CurrencyCode:   "USD",
		ExchangeRate:   decimal.NewFromInt(16000),
		FreightValue:   decimal.NewFromInt(500),
		InsuranceValue: decimal.NewFromInt(100),
		TransportMode:  domain.TransportSea,
		Incoterm:       domain.IncotermCIF,
		OfficeCode:     "040300",
		APINumber:      "API-123456",
		Status:         domain.StatusDraft,
		SupportingDocuments: []domain.SupportingDocument{
			{Category: domain.DocCategoryInvoice, DocumentNo: "INV-1", DocumentDate: now},
			{Category: domain.DocCategoryPackingList, DocumentNo: "PL-1", DocumentDate: now},
			{Category: domain.DocCategoryBillOfLading, DocumentNo: "BL-1", DocumentDate: now},
		},
	}
}

func pibItem(declarationID string) domain.DeclarationItem {
	return domain.DeclarationItem{
		ItemID:          uuid.NewString(),
		DeclarationID:   declarationID,
		LineNumber:      1,
		HSCode:          "8471.30.10",
		Description:     "Portable computers",
		Quantity:        decimal.NewFromInt(10),
		Unit:            "PCE",
		NetWeight:       decimal.NewFromInt(20),
		GrossWeight:     decimal.NewFromInt(25),
		UnitPrice:       decimal.NewFromInt(500),
		LineValue:       decimal.NewFromInt(5000),
		CountryOfOrigin: "CN",
		BMRate:          decimal.NewFromFloat(0.05),
		PPNRate:         decimal.NewFromFloat(0.11),
	}
}

type DeclarationServiceTestSuite struct {
	suite.Suite
	mockDeclRepo  *MockDeclarationRepository
	mockAuditRepo *MockAuditRepository
	service       portssvc.DeclarationSvcFacade
}

func (suite *DeclarationServiceTestSuite) SetupTest() {
	suite.mockDeclRepo = new(MockDeclarationRepository)
	suite.mockAuditRepo = new(MockAuditRepository)
	suite.service = services.NewDeclarationService(suite.mockDeclRepo, suite.mockAuditRepo, nil)
}

func (suite *DeclarationServiceTestSuite) TestCreateDeclaration_Success() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)
	req := dto.CreateDeclarationRequest{
		DocumentType:   domain.DocTypePIB,
		TaxpayerID:     "011234567891000",
		CurrencyCode:   "USD",
		ExchangeRate:   decimal.NewFromInt(16000),
		FreightValue:   decimal.NewFromInt(500),
		InsuranceValue: decimal.NewFromInt(100),
		TransportMode:  domain.TransportSea,
		Incoterm:       domain.IncotermCIF,
		OfficeCode:     "040300",
	}

	suite.mockDeclRepo.On("SaveDeclaration", ctx, mock.MatchedBy(func(d domain.Declaration) bool {
		return d.Status == domain.StatusDraft && d.DocumentType == domain.DocTypePIB && d.CreatedBy == actor.UserID
	}), mock.MatchedBy(func(a domain.AuditLogEntry) bool {
		return a.Action == domain.ActionCreate && a.ActorID == actor.UserID
	})).Return(nil).Once()

	decl, err := suite.service.CreateDeclaration(ctx, actor, req)

	suite.Require().NoError(err)
	suite.Require().NotNil(decl)
	suite.Equal(domain.StatusDraft, decl.Status)
	suite.NotEmpty(decl.DeclarationID)
	suite.mockDeclRepo.AssertExpectations(suite.T())
}

func (suite *DeclarationServiceTestSuite) TestCreateDeclaration_IncotermNotAllowedForAir() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)
	req := dto.CreateDeclarationRequest{
		DocumentType:  domain.DocTypePEB,
		TaxpayerID:    "011234567891000",
		CurrencyCode:  "USD",
		ExchangeRate:  decimal.NewFromInt(16000),
		TransportMode: domain.TransportAir,
		Incoterm:      domain.IncotermFOB,
		OfficeCode:    "040300",
	}

	decl, err := suite.service.CreateDeclaration(ctx, actor, req)

	suite.Require().Error(err)
	suite.Nil(decl)
	suite.ErrorIs(err, apperrors.ErrValidation)
	// Both sides of the illegal pairing are named.
	suite.Contains(err.Error(), "FOB")
	suite.Contains(err.Error(), "AIR")
	suite.mockDeclRepo.AssertNotCalled(suite.T(), "SaveDeclaration", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DeclarationServiceTestSuite) TestUpdateDeclaration_RejectedWhenLocked() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)
	decl := draftPIB()
	decl.Status = domain.StatusSubmitted

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, decl.DeclarationID).Return(decl, nil).Once()

	newOffice := "050100"
	updated, err := suite.service.UpdateDeclaration(ctx, actor, decl.DeclarationID, dto.UpdateDeclarationRequest{OfficeCode: &newOffice})

	suite.Require().Error(err)
	suite.Nil(updated)
	suite.ErrorIs(err, apperrors.ErrImmutable)
	suite.mockDeclRepo.AssertNotCalled(suite.T(), "UpdateDeclaration", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DeclarationServiceTestSuite) TestUpdateDeclaration_RejectedUnderReview() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)
	decl := draftPIB()
	decl.Status = domain.StatusUnderReview
	decl.GeneratedXML = "<Declaration><OfficeCode>040300</OfficeCode></Declaration>"

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, decl.DeclarationID).Return(decl, nil).Once()

	newOffice := "050100"
	updated, err := suite.service.UpdateDeclaration(ctx, actor, decl.DeclarationID, dto.UpdateDeclarationRequest{OfficeCode: &newOffice})

	suite.Require().Error(err)
	suite.Nil(updated)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockDeclRepo.AssertNotCalled(suite.T(), "UpdateDeclaration", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DeclarationServiceTestSuite) TestAddItem_RejectedUnderReview() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)
	decl := draftPIB()
	decl.Status = domain.StatusUnderReview

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, decl.DeclarationID).Return(decl, nil).Once()

	item := pibItem(decl.DeclarationID)
	created, err := suite.service.AddItem(ctx, actor, decl.DeclarationID, dto.ItemRequest{
		HSCode:          item.HSCode,
		Description:     item.Description,
		Quantity:        item.Quantity,
		Unit:            item.Unit,
		NetWeight:       item.NetWeight,
		GrossWeight:     item.GrossWeight,
		UnitPrice:       item.UnitPrice,
		CountryOfOrigin: item.CountryOfOrigin,
		BMRate:          item.BMRate,
		PPNRate:         item.PPNRate,
	})

	suite.Require().Error(err)
	suite.Nil(created)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockDeclRepo.AssertNotCalled(suite.T(), "SaveItem", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DeclarationServiceTestSuite) TestUpdateDeclaration_RecordsFieldChanges() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)
	decl := draftPIB()

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, decl.DeclarationID).Return(decl, nil).Once()
	suite.mockDeclRepo.On("UpdateDeclaration", ctx, mock.Anything, mock.MatchedBy(func(a domain.AuditLogEntry) bool {
		change, ok := a.FieldChanges["officeCode"]
		return a.Action == domain.ActionUpdate && ok && change.Old == "040300" && change.New == "050100"
	})).Return(nil).Once()

	newOffice := "050100"
	updated, err := suite.service.UpdateDeclaration(ctx, actor, decl.DeclarationID, dto.UpdateDeclarationRequest{OfficeCode: &newOffice})

	suite.Require().NoError(err)
	suite.Equal("050100", updated.OfficeCode)
	suite.mockDeclRepo.AssertExpectations(suite.T())
}

func (suite *DeclarationServiceTestSuite) TestSubmit_Success() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)
	decl := draftPIB()
	items := []domain.DeclarationItem{pibItem(decl.DeclarationID)}

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, decl.DeclarationID).Return(decl, nil).Once()
	suite.mockDeclRepo.On("FindItemsByDeclarationID", ctx, decl.DeclarationID).Return(items, nil).Once()
	suite.mockDeclRepo.On("SubmitDeclaration", ctx, mock.MatchedBy(func(d domain.Declaration) bool {
		return d.Status == domain.StatusSubmitted &&
			d.DocumentHash != "" &&
			d.GeneratedXML != "" &&
			d.LockedAt != nil &&
			d.TotalTax.IsPositive()
	}), mock.MatchedBy(func(assessed []domain.DeclarationItem) bool {
		return len(assessed) == 1 && assessed[0].TotalTax.IsPositive()
	}), mock.MatchedBy(func(a domain.AuditLogEntry) bool {
		return a.Action == domain.ActionSubmit && a.DocumentHash != ""
	})).Return(nil).Once()

	submitted, err := suite.service.Submit(ctx, actor, decl.DeclarationID)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusSubmitted, submitted.Status)
	suite.Len(submitted.DocumentHash, 64)
	suite.mockDeclRepo.AssertExpectations(suite.T())
}

func (suite *DeclarationServiceTestSuite) TestSubmit_NoItems() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)
	decl := draftPIB()

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, decl.DeclarationID).Return(decl, nil).Once()
	suite.mockDeclRepo.On("FindItemsByDeclarationID", ctx, decl.DeclarationID).Return([]domain.DeclarationItem{}, nil).Once()

	submitted, err := suite.service.Submit(ctx, actor, decl.DeclarationID)

	suite.Require().Error(err)
	suite.Nil(submitted)
	suite.ErrorIs(err, services.ErrNoItems)
	suite.ErrorIs(err, services.ErrZeroValue)
	suite.mockDeclRepo.AssertNotCalled(suite.T(), "SubmitDeclaration", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DeclarationServiceTestSuite) TestSubmit_MissingRequiredDocument() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)
	decl := draftPIB()
	// Sea shipment without its bill of lading.
	decl.SupportingDocuments = decl.SupportingDocuments[:2]
	items := []domain.DeclarationItem{pibItem(decl.DeclarationID)}

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, decl.DeclarationID).Return(decl, nil).Once()
	suite.mockDeclRepo.On("FindItemsByDeclarationID", ctx, decl.DeclarationID).Return(items, nil).Once()

	_, err := suite.service.Submit(ctx, actor, decl.DeclarationID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrMissingDocuments)
	suite.Contains(err.Error(), string(domain.DocCategoryBillOfLading))
}

func (suite *DeclarationServiceTestSuite) TestSubmit_FromApprovedRejected() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)
	decl := draftPIB()
	decl.Status = domain.StatusApproved

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, decl.DeclarationID).Return(decl, nil).Once()

	_, err := suite.service.Submit(ctx, actor, decl.DeclarationID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *DeclarationServiceTestSuite) TestApprove_RequiresCapability() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator) // no approve capability

	_, err := suite.service.Approve(ctx, actor, uuid.NewString())

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockDeclRepo.AssertNotCalled(suite.T(), "UpdateDeclarationStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DeclarationServiceTestSuite) TestApprove_Success() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleSupervisor)
	decl := draftPIB()
	decl.Status = domain.StatusSubmitted

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, decl.DeclarationID).Return(decl, nil).Once()
	suite.mockDeclRepo.On("UpdateDeclarationStatus", ctx, decl.DeclarationID, domain.StatusSubmitted,
		mock.MatchedBy(func(u portsrepo.StatusUpdate) bool { return u.Next == domain.StatusApproved }),
		mock.MatchedBy(func(a domain.AuditLogEntry) bool {
			return a.Action == domain.ActionApprove && a.FieldChanges["status"].New == string(domain.StatusApproved)
		})).Return(nil).Once()

	approved, err := suite.service.Approve(ctx, actor, decl.DeclarationID)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusApproved, approved.Status)
	suite.mockDeclRepo.AssertExpectations(suite.T())
}

func (suite *DeclarationServiceTestSuite) TestReject_ClearsLock() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleSupervisor)
	decl := draftPIB()
	decl.Status = domain.StatusSubmitted
	lockedAt := time.Now().UTC()
	decl.LockedAt = &lockedAt

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, decl.DeclarationID).Return(decl, nil).Once()
	suite.mockDeclRepo.On("UpdateDeclarationStatus", ctx, decl.DeclarationID, domain.StatusSubmitted,
		mock.MatchedBy(func(u portsrepo.StatusUpdate) bool {
			return u.Next == domain.StatusRejected && u.ClearLock
		}),
		mock.MatchedBy(func(a domain.AuditLogEntry) bool {
			return a.Action == domain.ActionReject && a.Note == "incomplete tariff data"
		})).Return(nil).Once()

	rejected, err := suite.service.Reject(ctx, actor, decl.DeclarationID, "incomplete tariff data")

	suite.Require().NoError(err)
	suite.Equal(domain.StatusRejected, rejected.Status)
	suite.Nil(rejected.LockedAt)
	suite.mockDeclRepo.AssertExpectations(suite.T())
}

func (suite *DeclarationServiceTestSuite) TestUnlock_BackToDraft() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleSupervisor)
	decl := draftPIB()
	decl.Status = domain.StatusLocked

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, decl.DeclarationID).Return(decl, nil).Once()
	suite.mockDeclRepo.On("UpdateDeclarationStatus", ctx, decl.DeclarationID, domain.StatusLocked,
		mock.MatchedBy(func(u portsrepo.StatusUpdate) bool {
			return u.Next == domain.StatusDraft && u.ClearLock
		}),
		mock.MatchedBy(func(a domain.AuditLogEntry) bool { return a.Action == domain.ActionUnlock })).
		Return(nil).Once()

	unlocked, err := suite.service.Unlock(ctx, actor, decl.DeclarationID)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusDraft, unlocked.Status)
	suite.mockDeclRepo.AssertExpectations(suite.T())
}

func (suite *DeclarationServiceTestSuite) TestAddItem_AssignsNextLineNumber() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)
	decl := draftPIB()
	existing := pibItem(decl.DeclarationID)
	existing.LineNumber = 3

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, decl.DeclarationID).Return(decl, nil).Once()
	suite.mockDeclRepo.On("FindItemsByDeclarationID", ctx, decl.DeclarationID).Return([]domain.DeclarationItem{existing}, nil).Once()
	suite.mockDeclRepo.On("SaveItem", ctx, mock.MatchedBy(func(it domain.DeclarationItem) bool {
		return it.LineNumber == 4 && it.LineValue.Equal(decimal.NewFromInt(1000))
	}), mock.Anything).Return(nil).Once()

	item, err := suite.service.AddItem(ctx, actor, decl.DeclarationID, dto.ItemRequest{
		HSCode:          "6109.10.00",
		Description:     "Cotton t-shirts",
		Quantity:        decimal.NewFromInt(100),
		Unit:            "PCE",
		NetWeight:       decimal.NewFromInt(30),
		GrossWeight:     decimal.NewFromInt(32),
		UnitPrice:       decimal.NewFromInt(10),
		CountryOfOrigin: "ID",
	})

	suite.Require().NoError(err)
	suite.Equal(4, item.LineNumber)
	suite.mockDeclRepo.AssertExpectations(suite.T())
}

func (suite *DeclarationServiceTestSuite) TestAddItem_GrossBelowNet() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)
	decl := draftPIB()

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, decl.DeclarationID).Return(decl, nil).Once()
	suite.mockDeclRepo.On("FindItemsByDeclarationID", ctx, decl.DeclarationID).Return([]domain.DeclarationItem{}, nil).Once()

	_, err := suite.service.AddItem(ctx, actor, decl.DeclarationID, dto.ItemRequest{
		HSCode:          "6109.10.00",
		Description:     "Cotton t-shirts",
		Quantity:        decimal.NewFromInt(100),
		Unit:            "PCE",
		NetWeight:       decimal.NewFromInt(40),
		GrossWeight:     decimal.NewFromInt(32),
		UnitPrice:       decimal.NewFromInt(10),
		CountryOfOrigin: "ID",
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockDeclRepo.AssertNotCalled(suite.T(), "SaveItem", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DeclarationServiceTestSuite) TestExportXML_RecordsAuditEntry() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)
	decl := draftPIB()
	decl.Status = domain.StatusSubmitted

	items := []domain.DeclarationItem{pibItem(decl.DeclarationID)}
	payload, hash, err := ceisaxml.Generate(decl, items)
	suite.Require().NoError(err)
	decl.GeneratedXML = payload
	decl.DocumentHash = hash

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, decl.DeclarationID).Return(decl, nil).Once()
	suite.mockAuditRepo.On("SaveEntry", ctx, mock.MatchedBy(func(a domain.AuditLogEntry) bool {
		return a.Action == domain.ActionExport && a.DocumentHash == hash
	})).Return(nil).Once()

	exported, err := suite.service.ExportXML(ctx, actor, decl.DeclarationID)

	suite.Require().NoError(err)
	suite.Equal(payload, exported)
	suite.mockAuditRepo.AssertExpectations(suite.T())
}

func (suite *DeclarationServiceTestSuite) TestExportXML_TamperedPayload() {
	ctx := context.Background()
	actor := actorWithRole(domain.RoleOperator)
	decl := draftPIB()
	decl.Status = domain.StatusSubmitted

	items := []domain.DeclarationItem{pibItem(decl.DeclarationID)}
	payload, hash, err := ceisaxml.Generate(decl, items)
	suite.Require().NoError(err)
	decl.GeneratedXML = payload + " "
	decl.DocumentHash = hash

	suite.mockDeclRepo.On("FindDeclarationByID", ctx, decl.DeclarationID).Return(decl, nil).Once()

	_, err = suite.service.ExportXML(ctx, actor, decl.DeclarationID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrIntegrity)
	suite.mockAuditRepo.AssertNotCalled(suite.T(), "SaveEntry", mock.Anything, mock.Anything)
}

func (suite *DeclarationServiceTestSuite) TestAllowedIncoterms() {
	sea := suite.service.AllowedIncoterms(domain.TransportSea)
	air := suite.service.AllowedIncoterms(domain.TransportAir)

	suite.Len(sea, 10)
	suite.Len(air, 6)
	suite.Contains(sea, domain.IncotermFOB)
	suite.NotContains(air, domain.IncotermFOB)
}

func TestDeclarationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DeclarationServiceTestSuite))
}
