// Package contact implements the contact form endpoint: it reads one JSON
// submission, checks the required fields and hands the record to a store.
// It also answers the CORS preflight for the endpoint.
package contact
