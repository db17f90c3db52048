// Package eligibility decides whether a roster member holds a valid membership.
//
// Students are verified by fetching their public profile page and looking for
// a student marker in it. Every other status is verified through the payment
// column of the roster. Network failures never abort a run: the member is
// reported as not verified and the failure is kept on the Result.
package eligibility
