package llm

import (
	"fmt"
	"strings"

	"github.com/Veraticus/receipt-ledger/internal/model"
)

const systemPrompt = "You are an expert at categorizing supermarket purchases. " +
	"Assign every item to exactly one category. " +
	"Return the result as a JSON object whose keys are category names and whose values are arrays of item numbers. " +
	"Return only the raw JSON object, without markdown code fences or any other decoration."

// ClassificationRequest is one batch of unmatched items ready to send to a
// model. Item numbers in the prompt are compacted positions; Positions maps
// them back to receipt item indices.
type ClassificationRequest struct {
	System     string
	Prompt     string
	Vocabulary []model.Category
	Items      []model.RawItem
	Positions  []int
}

// Len returns the number of items in the batch.
func (r ClassificationRequest) Len() int {
	return len(r.Positions)
}

// Remap converts a compacted position from the model's reply into the
// original item index.
func (r ClassificationRequest) Remap(position int) (int, bool) {
	if position < 0 || position >= len(r.Positions) {
		return 0, false
	}
	return r.Positions[position], true
}

// BuildClassificationRequest numbers items from zero and lists them with
// their quantities and prices together with the closed category list.
func BuildClassificationRequest(items []model.RawItem) ClassificationRequest {
	vocabulary := model.AllCategories()
	positions := make([]int, len(items))

	var b strings.Builder
	b.WriteString("Please categorize each of the following items into one of the categories below:\n\n")
	for pos, item := range items {
		positions[pos] = item.Index
		fmt.Fprintf(&b, "%d. %s: %s x R$%s = R$%s\n",
			pos, item.Name, item.Quantity.String(), item.UnitPrice.StringFixed(2), item.TotalPrice.StringFixed(2))
	}

	b.WriteString("\nAvailable categories:\n")
	for _, c := range vocabulary {
		fmt.Fprintf(&b, "- %s\n", c)
	}

	fmt.Fprintf(&b, "\nReturn a JSON object whose keys are exactly the category names above and whose values are arrays with the numbers of the items in each category. "+
		"For example: {%q: [0, 3, 5], %q: [1, 2]}. "+
		"Each item must appear in exactly one category. "+
		"If an item does not clearly fit any category, put it in %q. "+
		"IMPORTANT: reply with the raw JSON only, without markdown formatting or ``` code blocks.",
		model.CategoryProteins.String(), model.CategoryBeverages.String(), model.CategoryFallback.String())

	return ClassificationRequest{
		System:     systemPrompt,
		Prompt:     b.String(),
		Vocabulary: vocabulary,
		Items:      items,
		Positions:  positions,
	}
}
