// Package billing turns unbilled charge records into invoices.
//
// Drafts are computed by ComputeDraft from a Selection and invoice terms.
// Submitter promotes virtual charges (those materialized from quotation
// lines) through a Promoter and then creates the invoice on the hosted
// service, recording each step as a SubmissionAttempt. EvaluateBalance
// derives the outstanding balance of a persisted invoice on read.
package billing
