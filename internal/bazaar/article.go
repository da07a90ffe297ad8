package bazaar

// ArticleStatus tracks an article through checkout.
type ArticleStatus string

const (
	ArticleCreated ArticleStatus = "created"
	ArticleBooked  ArticleStatus = "booked"
	ArticleSold    ArticleStatus = "sold"
)

// BillingStatus tracks a checkout session.
type BillingStatus string

const (
	BillingInProgress BillingStatus = "in_progress"
	BillingCompleted  BillingStatus = "completed"
	BillingCancelled  BillingStatus = "cancelled"
)

// CheckBookable returns the error that prevents booking into a billing with status
// bs an article with status as, or nil.
func CheckBookable(bs BillingStatus, as ArticleStatus, alreadyLinked bool) error {
	if err := CheckBillingOpen(bs); err != nil {
		return err
	}
	if alreadyLinked || as != ArticleCreated {
		return ErrArticleAlreadyBooked
	}
	return nil
}

// CheckBillingOpen returns an error unless the billing still accepts changes.
func CheckBillingOpen(bs BillingStatus) error {
	switch bs {
	case BillingCompleted:
		return ErrBillingCompleted
	case BillingCancelled:
		return ErrBillingCancelled
	}
	return nil
}

// CheckArticleEditable returns an error once an article entered checkout.
func CheckArticleEditable(as ArticleStatus) error {
	if as != ArticleCreated {
		return ErrArticleNotEditable
	}
	return nil
}
