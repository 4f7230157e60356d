package httptransport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetgate/internal/domain"
	dErrors "assetgate/pkg/domain-errors"
)

func validRequest() SubmissionRequest {
	return SubmissionRequest{
		SubmitterID:     "user-7",
		WalletAddress:   "0xabc",
		WalletSignature: "0xsig",
		Category:        domain.CategoryRealEstate,
		AssetName:       "Koramangala Office Park",
		Location:        domain.Location{City: "Bengaluru", Country: "IN"},
		Financials:      domain.Financials{CurrentRent: 500000},
	}
}

func TestValidateReportsAllMissingFields(t *testing.T) {
	err := SubmissionRequest{}.Validate()
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
	for _, field := range []string{"category", "location", "financials", "submitterId", "walletSignature"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestValidateAcceptsCompleteRequest(t *testing.T) {
	require.NoError(t, validRequest().Validate())
}

func TestValidateRejectsUnknownCategory(t *testing.T) {
	req := validRequest()
	req.Category = "fine-art"
	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported category")
}

func TestToDomainNormalizesReferenceLists(t *testing.T) {
	req := validRequest()
	req.RegistryIDs = []string{" KA-REG-1 ", "KA-REG-1", "", "KA-REG-2"}
	req.DocumentURLs = []string{"/docs/deed.pdf", "/docs/deed.pdf"}

	sub := req.ToDomain()
	assert.Equal(t, []string{"KA-REG-1", "KA-REG-2"}, sub.RegistryIDs)
	assert.Equal(t, []string{"/docs/deed.pdf"}, sub.DocumentURLs)
	assert.Equal(t, "0xsig", sub.Signature)
	assert.Empty(t, sub.ID)
	assert.Empty(t, sub.Status)
}
