package core

// sampleRows is the built-in roster served when live data is unavailable.
var sampleRows = []struct {
	id, name, email, phone, address, company, position string
}{
	{"EMP001", "John Doe", "john.doe@example.com", "+1 555-123-4567", "123 Main St, Anytown, USA", "Acme Inc", "Software Engineer"},
	{"EMP002", "Jane Smith", "jane.smith@example.com", "+1 555-987-6543", "456 Oak Ave, Somewhere, USA", "Tech Solutions", "Product Manager"},
	{"EMP003", "Robert Johnson", "robert.j@example.com", "+1 555-456-7890", "789 Pine Rd, Nowhere, USA", "Global Systems", "Data Analyst"},
	{"EMP004", "Emily Davis", "emily.d@example.com", "+1 555-789-0123", "321 Elm St, Everywhere, USA", "Creative Designs", "UX Designer"},
	{"EMP005", "Michael Wilson", "michael.w@example.com", "+1 555-234-5678", "654 Maple Dr, Anywhere, USA", "Data Corp", "CTO"},
}

// SampleRecords returns a fresh copy of the built-in sample records.
func SampleRecords() []Record {
	out := make([]Record, 0, len(sampleRows))
	for _, s := range sampleRows {
		rec := Record{ID: s.id}
		rec.Set(FieldName, s.name)
		rec.Set(FieldEmail, s.email)
		rec.Set(FieldPhone, s.phone)
		rec.Set(FieldAddress, s.address)
		rec.Set(FieldCompany, s.company)
		rec.Set(FieldPosition, s.position)
		out = append(out, rec)
	}
	return out
}

// IsSampleData reports whether records is exactly the built-in sample set.
func IsSampleData(records []Record) bool {
	if len(records) != len(sampleRows) {
		return false
	}
	for i, rec := range records {
		if rec.ID != sampleRows[i].id {
			return false
		}
		if name, _ := rec.Get(FieldName); name != sampleRows[i].name {
			return false
		}
	}
	return true
}
