package phaster

// SubmitOptions are the form fields sent alongside the FASTA file on
// submission.
type SubmitOptions struct {
	// Contigs marks the input as a multi-contig assembly rather than a
	// single finished genome. Sent as "1"/"0".
	Contigs bool
}

// SubmitResponse is the decoded JSON body of a successful submission.
type SubmitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// StatusResponse is the decoded JSON body of a status poll. Summary and Zip
// are only present once the job has finished; a non-empty Zip signals that
// results are ready for download.
type StatusResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Summary string `json:"summary,omitempty"`
	Zip     string `json:"zip,omitempty"`
}
