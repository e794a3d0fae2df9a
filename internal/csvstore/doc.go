// Package csvstore persists contact submissions to an append-only CSV file.
//
// The file location is decided once by Open: the configured data directory
// when it is writable, otherwise a directory under the system temp area.
// Appends are serialised so every record lands on its own physical line.
//
// Usage:
//
//	store, err := csvstore.Open(csvstore.Options{
//		DataDir:     "./data",
//		FileName:    "contact-submissions.csv",
//		FallbackDir: "solar-energy-morocco",
//	}, logger)
//	if err != nil {
//		return err
//	}
//	err = store.Append(csvstore.Record{Timestamp: time.Now(), Name: "A", Email: "a@b.c", Message: "hi"})
package csvstore
