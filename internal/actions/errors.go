package actions

import "errors"

// ErrBotInterstitial signals that the rendered page is implausibly short,
// which almost always means an anti-bot challenge page. Fatal for the fetch
// attempt; the retry policy never re-invokes on it.
var ErrBotInterstitial = errors.New("bot interstitial detected")
