// Package transfer moves order results to their destinations.
//
// A Destination hides where files land: a local directory with atomic
// renames, or an object-store bucket via gocloud.dev (s3://, file://,
// mem://). The Pool streams files concurrently with retries and
// skip-if-exists. Bulk transfers move a whole batch through one mechanism;
// S5cmd shells out to the s5cmd binary for S3 destinations, and FirstAvailable
// picks the fastest mechanism that can actually run.
package transfer
