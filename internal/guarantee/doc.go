// Package guarantee extracts guaranteed prize pool amounts from free-text labels.
//
// Two ordered rule tables are provided. TitlePatterns is a loose table used
// against listing titles such as "84万相当" or "Web最低保証50,000coin".
// DetailPatterns is stricter and only accepts amounts that appear next to an
// explicit 保証 marker, which keeps long detail-page descriptions from yielding
// unrelated numbers. Evaluation stops at the first rule that matches.
package guarantee
