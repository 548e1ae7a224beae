package scan

import (
	"reflect"
	"testing"
)

func TestFindSensitiveDataDetectorThenOccurrenceOrder(t *testing.T) {
	text := "Contact: a@b.com or x@y.org, CMND 123456789, STK: 0123-4567-8901"

	got := FindSensitiveData(text)
	want := []string{
		"EMAIL:a@b.com",
		"EMAIL:x@y.org",
		"CMND:123456789",
		"BANK:0123-4567-8901",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("findings = %v, want %v", got, want)
	}
}

func TestFindSensitiveDataCleanText(t *testing.T) {
	if got := FindSensitiveData("nothing interesting here"); got != nil {
		t.Fatalf("findings = %v, want none", got)
	}
}

func TestFindSensitiveDataTaxCode(t *testing.T) {
	got := FindSensitiveData("MST 0312345678 thanks")
	want := []string{"TAX:0312345678"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("findings = %v, want %v", got, want)
	}
}

func TestFindSensitiveDataTwelveDigitID(t *testing.T) {
	got := FindSensitiveData("id 123456789012 end")
	want := []string{"CMND:123456789012"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("findings = %v, want %v", got, want)
	}
}

func TestFindSensitiveDataBankKeywordCaseInsensitive(t *testing.T) {
	got := FindSensitiveData("ACCOUNT: 123456")
	want := []string{"BANK:123456"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("findings = %v, want %v", got, want)
	}
}

func TestFindSensitiveDataAllOccurrencesReported(t *testing.T) {
	got := FindSensitiveData("a@b.com c@d.com e@f.com")
	if len(got) != 3 {
		t.Fatalf("findings = %v, want 3 emails", got)
	}
}
