// Package session owns the curation workflow state: connection, step funnel,
// loaded data, filters and the cursor into the derived media view.
//
// Every mutation is persisted through a [Store] as it happens, so a restarted
// process resumes where it left off. Network calls run without holding the
// session lock; their results are applied afterwards.
package session
