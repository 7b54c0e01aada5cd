// Package risk scores the inherent risk of an approval request from its
// declared actions. Factors are computed independently per category and
// combined as a weighted mean into an overall score within [0,100].
package risk
