package appfs

import "testing"

func TestEmailTemplatesEmbedded(t *testing.T) {
	// _base.txt is the one directory embed patterns would silently skip
	files := []string{
		"assets/templates/email/_base.txt",
		"assets/templates/email/evaluation-open-student.txt",
		"assets/templates/email/evaluation-open-teacher.txt",
		"assets/templates/email/reminder-student.txt",
		"assets/templates/email/reminder-teacher.txt",
		"assets/templates/email/evaluation-closed.txt",
	}
	for _, fp := range files {
		if _, err := FS.ReadFile(fp); err != nil {
			t.Errorf("%s is not embedded: %v", fp, err)
		}
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := FS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("reading migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Error("no migrations embedded")
	}
}
