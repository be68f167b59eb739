package validate

import "testing"

func TestUploadFileAllowList(t *testing.T) {
	ok := []struct{ name, mime string }{
		{"letter.pdf", "application/pdf"},
		{"envelope.PNG", "image/png"},
		{"insert.jpg", "image/jpeg"},
		{"insert.jpeg", "image/jpeg"},
		{"list.csv", "text/csv"},
		{"list.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"list.xls", "application/vnd.ms-excel"},
	}
	for _, c := range ok {
		if err := UploadFile(c.name, c.mime); err != nil {
			t.Fatalf("%s should be allowed: %v", c.name, err)
		}
	}

	bad := []struct{ name, mime string }{
		{"payload.exe", "application/octet-stream"},
		{"script.sh", "text/x-shellscript"},
		{"letter.pdf.bat", "application/pdf"},
		{"noext", "application/pdf"},
	}
	for _, c := range bad {
		if err := UploadFile(c.name, c.mime); err == nil {
			t.Fatalf("%s should be rejected", c.name)
		}
	}
}

func TestUploadFileMimeMismatch(t *testing.T) {
	if err := UploadFile("letter.pdf", "application/x-msdownload"); err == nil {
		t.Fatalf("mismatched content type should be rejected")
	}
}

func TestEmail(t *testing.T) {
	if err := Email("client@abtelectronics.com"); err != nil {
		t.Fatalf("valid email rejected: %v", err)
	}
	for _, bad := range []string{"", "plain", "a@b", "a b@c.com"} {
		if err := Email(bad); err == nil {
			t.Fatalf("%q should be rejected", bad)
		}
	}
}

func TestUsername(t *testing.T) {
	for _, ok := range []string{"abt_uploads", "client.drop-1", "A9"} {
		if err := Username(ok); err != nil {
			t.Fatalf("%q should be accepted: %v", ok, err)
		}
	}
	for _, bad := range []string{"", ".hidden", "has space", "semi;colon"} {
		if err := Username(bad); err == nil {
			t.Fatalf("%q should be rejected", bad)
		}
	}
}

func TestCampaignMonthAndYear(t *testing.T) {
	if err := CampaignMonth("December"); err != nil {
		t.Fatalf("December rejected: %v", err)
	}
	if err := CampaignMonth("Smarch"); err == nil {
		t.Fatalf("invalid month accepted")
	}
	if err := CampaignYear(2025); err != nil {
		t.Fatalf("2025 rejected: %v", err)
	}
	if err := CampaignYear(1999); err == nil {
		t.Fatalf("1999 accepted")
	}
}
