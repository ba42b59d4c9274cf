package title

import (
	"testing"

	"github.com/mkravets/docvault/internal/core/domain"
)

func TestGenerateVendorTypeDate(t *testing.T) {
	text := "Amazon Services\nTAX INVOICE\nBill To: J. Doe\nTotal: $120.00"
	meta := domain.Metadata{Dates: []string{"2024-03-15"}}

	got := Generate(text, meta, "IMG_2041.jpg")
	want := "Amazon_Invoice_2024-03-15"
	if got != want {
		t.Fatalf("Generate: got %q, want %q", got, want)
	}
}

func TestGenerateTypePriority(t *testing.T) {
	text := "City Clinic lab report for blood work, attached receipt"
	got := Generate(text, domain.Metadata{}, "scan.pdf")
	if got != "Medical_Report" {
		t.Fatalf("Generate: got %q, want Medical_Report", got)
	}
}

func TestGenerateFallsBackToOriginalStem(t *testing.T) {
	got := Generate("nothing recognizable here", domain.Metadata{}, "holiday photo (1).png")
	if got != "holiday_photo__1_" {
		t.Fatalf("Generate: got %q", got)
	}
}

func TestGenerateAllCapsLetterhead(t *testing.T) {
	text := "ACME CORP\nstatement of account for March\nbank account 1234"
	got := Generate(text, domain.Metadata{}, "doc.pdf")
	if got != "ACME_Bank_Statement" {
		t.Fatalf("Generate: got %q", got)
	}
}

func TestGenerateCapsLength(t *testing.T) {
	long := "averyveryverylongfilenamethatkeepsongoingwellpastfiftycharacters"
	got := Generate("", domain.Metadata{}, long+".pdf")
	if len(got) > 50 {
		t.Fatalf("Generate: length %d exceeds cap", len(got))
	}
}
