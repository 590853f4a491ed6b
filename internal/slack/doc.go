// Package slack is a minimal Slack Web API client.
//
// It resolves committer emails to user IDs (users.lookupByEmail) and posts
// direct messages (chat.postMessage). Client satisfies both
// recipients.Directory and notifier.Sender. All calls share one client-side
// rate limiter; waiting respects the caller's context. Nothing is retried.
package slack
