package request

// TriggerCrawlRequest names the provider to crawl now, or "all".
type TriggerCrawlRequest struct {
	Provider string `json:"provider"`
}
