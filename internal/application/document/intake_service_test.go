package document

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/erp/muhasebe/internal/domain/document"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Put(ctx context.Context, key, contentType string, body []byte) (string, error) {
	args := m.Called(ctx, key, contentType, body)
	return args.String(0), args.Error(1)
}

const sampleText = `ABC Ticaret A.Ş.
Vergi Dairesi: Kadıköy
VKN: 1234567890
Fatura No: ABC2024000123
Tarih: 15.03.2024
Ara Toplam: 1.000,00
KDV: 200,00
%20 KDV
Genel Toplam: 1.200,00`

func newTestIntakeService(archive document.Archive) *IntakeService {
	svc := NewIntakeService(document.NewParser(), archive, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestIntakeService_Parse(t *testing.T) {
	ctx := context.Background()

	t.Run("text only", func(t *testing.T) {
		archive := new(MockArchive)
		svc := newTestIntakeService(archive)

		parsed, err := svc.Parse(ctx, ParseRequest{Text: sampleText})
		require.NoError(t, err)
		assert.Equal(t, "ABC2024000123", parsed.InvoiceNumber)
		assert.Equal(t, "1234567890", parsed.Company.TaxNumber)
		require.NotNil(t, parsed.Amounts.Total)
		assert.Equal(t, "1200.00", parsed.Amounts.Total.StringFixed(2))
		assert.InDelta(t, 1.0, parsed.Confidence, 1e-9)
		assert.Empty(t, parsed.ArchiveKey)
		archive.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("archives supplied document", func(t *testing.T) {
		archive := new(MockArchive)
		svc := newTestIntakeService(archive)
		body := []byte("%PDF-1.4")
		archive.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "documents/2024/11/") && strings.HasSuffix(key, ".pdf")
		}), "application/pdf", body).Return("s3://muhasebe-docs/documents/2024/11/x.pdf", nil)

		parsed, err := svc.Parse(ctx, ParseRequest{Text: sampleText, Document: body, FileName: "Fatura.PDF", ContentType: "application/pdf"})
		require.NoError(t, err)
		assert.Equal(t, "s3://muhasebe-docs/documents/2024/11/x.pdf", parsed.ArchiveKey)
		archive.AssertExpectations(t)
	})

	t.Run("archive failure", func(t *testing.T) {
		archive := new(MockArchive)
		svc := newTestIntakeService(archive)
		archive.On("Put", ctx, mock.Anything, "application/octet-stream", mock.Anything).Return("", errors.New("bucket missing"))

		_, err := svc.Parse(ctx, ParseRequest{Text: sampleText, Document: []byte{1}})
		assert.ErrorContains(t, err, "bucket missing")
	})

	t.Run("no archive configured", func(t *testing.T) {
		svc := newTestIntakeService(nil)
		parsed, err := svc.Parse(ctx, ParseRequest{Text: sampleText, Document: []byte{1}})
		require.NoError(t, err)
		assert.Empty(t, parsed.ArchiveKey)
	})

	t.Run("empty text", func(t *testing.T) {
		svc := newTestIntakeService(nil)
		_, err := svc.Parse(ctx, ParseRequest{Text: "   "})
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}
