package conversation

// Page is a window of a conversation's history.
type Page struct {
	Messages      []Message `json:"messages"`
	TotalMessages int       `json:"totalMessages"`
	CurrentPage   int       `json:"currentPage"`
	TotalPages    int       `json:"totalPages"`
}

// Window returns page number page (1-based) of size limit, counted from the newest message.
// Page 1 holds the most recent limit messages; each page is in chronological order.
// Arbitrarily large page and limit values are safe.
func Window(messages []Message, page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}

	total := len(messages)
	p := Page{
		Messages:      []Message{},
		TotalMessages: total,
		CurrentPage:   page,
		TotalPages:    total / limit,
	}
	if total%limit != 0 {
		p.TotalPages++
	}

	// page-1 <= (total-1)/limit keeps start = (page-1)*limit within [0, total).
	if total == 0 || page-1 > (total-1)/limit {
		return p
	}
	start := (page - 1) * limit
	end := total
	if limit < total-start {
		end = start + limit
	}

	// Newest-first index i maps to messages[total-1-i]; reversing [start, end) back gives
	// the chronological slice [total-end, total-start).
	p.Messages = append(p.Messages, messages[total-end:total-start]...)

	return p
}
