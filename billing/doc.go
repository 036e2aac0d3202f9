// Package billing is the core of billingkit: the subscription lifecycle state
// machine, the invoice-charging algorithm with currency-mismatch recovery and
// bounded network retries, and the periodic sweep that advances every
// subscription.
//
// The package is split along the same lines as the data model:
//
//   - entity services (CustomerService, InvoiceService, PlanService,
//     SubscriptionService) are thin façades over Store interfaces that
//     enforce not-found and write-failed semantics and own status
//     bookkeeping, with no business policy;
//   - Engine owns all policy: which subscriptions to charge, how to recover
//     from currency mismatches and transient network failures, when to
//     renew, expire or cancel, and what to tell the customer about it.
//
// External collaborators (payment charging, currency conversion, customer
// notification) are injected as interfaces; the engine never depends on a
// concrete integration. Store implementations live in the pgstore and
// memstore subpackages.
package billing
