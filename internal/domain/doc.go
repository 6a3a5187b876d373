// Package domain contains the core business entities of the ingestion service:
// tasks with their lifecycle status, the data rows they produce, and the
// timestamp rules shared by every ingestion source. It is independent of any
// specific infrastructure or delivery mechanism.
package domain
