// Package quota implements the quota admission control engine: throttle
// classification followed by an allow/wait/refuse decision.
//
// The engine only throttles; it never grants execution rights, and it never
// reorders the caller's other safety gates. Both guarantees are carried as
// self-attesting flags on the policy report and re-checked when the turn
// bundle is constructed, so a forwarded bundle proves them end to end.
//
// Like every engine in the kernel, quota is stateless: the caller supplies a
// serialized usage snapshot per call and owns whatever counters back it.
package quota
