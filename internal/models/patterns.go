package models

import "time"

// Consistency levels of a reorder cycle
const (
	ConsistencyHigh = "high"
	ConsistencyLow  = "low"
)

// Due urgencies
const (
	UrgencyDueNow   = "due_now"
	UrgencyDueSoon  = "due_soon"
	UrgencyUpcoming = "upcoming"
)

// Reminder urgency levels
const (
	ReminderCritical = "critical"
	ReminderHigh     = "high"
	ReminderMedium   = "medium"
	ReminderLow      = "low"
)

// Reminder types
const (
	ReminderTypeCycle    = "reorder_cycle"
	ReminderTypeStockout = "stockout_prevention"
)

// Basket reasons bucketed by frequency
const (
	ReasonEveryWeek  = "ordered_every_week"
	ReasonMostWeeks  = "ordered_most_weeks"
	ReasonFrequently = "ordered_frequently"
	ReasonSometimes  = "ordered_sometimes"
)

// Shopping cadences
const (
	CadenceWeekly     = "weekly"
	CadenceBiWeekly   = "bi-weekly"
	CadenceMonthly    = "monthly"
	CadenceOccasional = "occasional"
	CadenceUnknown    = "unknown"
)

// Quantity variance classes
const (
	QuantityConsistent       = "consistent"
	QuantitySlightlyVariable = "slightly_variable"
	QuantityVariable         = "variable"
)

// UsualItem is a SKU the user buys consistently
type UsualItem struct {
	SKU           string  `json:"sku"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Frequency     float64 `json:"frequency"`
	UsualQuantity int     `json:"usual_quantity"`
	Confidence    float64 `json:"confidence"`
}

// QuantityPattern summarises the quantities ordered for one SKU
type QuantityPattern struct {
	TypicalQuantity  int     `json:"typical_quantity"`
	QuantityVariance string  `json:"quantity_variance"`
	MinQuantity      int     `json:"min_quantity"`
	MaxQuantity      int     `json:"max_quantity"`
	AverageQuantity  float64 `json:"average_quantity"`
}

// BasketItem is one line of a usual basket
type BasketItem struct {
	SKU        string  `json:"sku"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
	Frequency  float64 `json:"frequency"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// UsualBasket is the predicted default order
type UsualBasket struct {
	UserID          string       `json:"user_id,omitempty"`
	Items           []BasketItem `json:"items"`
	TotalPrice      float64      `json:"total_price"`
	ItemsCount      int          `json:"items_count"`
	ConfidenceScore float64      `json:"confidence_score"`
	Message         string       `json:"message,omitempty"`
}

// ShoppingPatterns describes the overall shopping cadence of a user
type ShoppingPatterns struct {
	ShoppingFrequency    string         `json:"shopping_frequency"`
	TypicalDay           string         `json:"typical_day"`
	Staples              []string       `json:"staples"`
	Occasional           []string       `json:"occasional"`
	ReorderIntervals     map[string]int `json:"reorder_intervals"`
	AverageOrderInterval float64        `json:"average_order_interval"`
}

// ReorderSuggestion proposes reordering a SKU based on its usual interval
type ReorderSuggestion struct {
	SKU                string  `json:"sku"`
	Name               string  `json:"name"`
	DaysSinceLastOrder int     `json:"days_since_last_order"`
	UsualInterval      int     `json:"usual_interval"`
	Confidence         float64 `json:"confidence"`
	Message            string  `json:"message"`
	Source             string  `json:"source,omitempty"`
}

// SeasonalUsualItem is a usual item flagged for a season
type SeasonalUsualItem struct {
	UsualItem
	IsSeasonal bool `json:"is_seasonal"`
}

// ReorderCycle is the learned interval between purchases of a SKU
type ReorderCycle struct {
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Category    string    `json:"category,omitempty"`
	AverageDays int       `json:"average_days"`
	Consistency string    `json:"consistency"`
	Intervals   []int     `json:"intervals"`
	LastOrdered time.Time `json:"last_ordered"`
	OrderCount  int       `json:"order_count"`
}

// DueItem is a SKU approaching or past its reorder point
type DueItem struct {
	SKU                string `json:"sku"`
	Name               string `json:"name"`
	DaysSinceLastOrder int    `json:"days_since_last_order"`
	CycleDays          int    `json:"cycle_days"`
	DaysUntilDue       int    `json:"days_until_due"`
	Urgency            string `json:"urgency"`
	Consistency        string `json:"consistency"`
}

// Reminder is a forward-looking reorder nudge
type Reminder struct {
	SKU          string    `json:"sku"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	ReminderDate time.Time `json:"reminder_date"`
	DaysFromNow  int       `json:"days_from_now"`
	UrgencyLevel string    `json:"urgency_level"`
	Message      string    `json:"message"`
	Confidence   float64   `json:"confidence"`
	CycleDays    int       `json:"cycle_days"`
}

// BundleItem is one member of a reorder bundle
type BundleItem struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	CycleDays   int    `json:"cycle_days"`
	Consistency string `json:"consistency"`
}

// Bundle groups SKUs with matching cycles into one delivery
type Bundle struct {
	BucketDays        int          `json:"bucket_days"`
	Items             []BundleItem `json:"items"`
	CombinedCycleDays int          `json:"combined_cycle_days"`
	SavingsPotential  float64      `json:"savings_potential"`
	ConvenienceScore  float64      `json:"convenience_score"`
}

// ReorderPrediction is the projected next order date of a SKU
type ReorderPrediction struct {
	SKU           string     `json:"sku"`
	PredictedDate *time.Time `json:"predicted_date"`
	Confidence    float64    `json:"confidence"`
	CycleDays     int        `json:"cycle_days"`
	BaseCycleDays int        `json:"base_cycle_days"`
	Reason        string     `json:"reason"`
}

// HolidayAdjustment is a reorder date shifted ahead of a holiday
type HolidayAdjustment struct {
	RegularCycleDays int       `json:"regular_cycle_days"`
	RegularDate      time.Time `json:"regular_date"`
	AdjustedDate     time.Time `json:"adjusted_date"`
	DaysAdjusted     int       `json:"days_adjusted"`
	Holiday          string    `json:"holiday,omitempty"`
	Reason           string    `json:"reason"`
}

// StockoutOptions selects the items guarded against running out
type StockoutOptions struct {
	CriticalItems []string `json:"critical_items"`
	BufferDays    int      `json:"buffer_days"`
}

// FeedbackLearning is a cycle refined by user corrections
type FeedbackLearning struct {
	SKU                string  `json:"sku"`
	LearnedCycle       int     `json:"learned_cycle"`
	AverageRatio       float64 `json:"average_ratio"`
	ConfidenceImproved bool    `json:"confidence_improved"`
	FeedbackCount      int     `json:"feedback_count"`
}

// HouseholdPattern estimates how many people a user shops for
type HouseholdPattern struct {
	HouseholdSizeEstimate int                 `json:"household_size_estimate"`
	MemberPreferences     map[string][]string `json:"member_preferences"`
	VariantPatterns       map[string][]string `json:"variant_patterns"`
	Confidence            float64             `json:"confidence"`
}

// Insights bundles the outputs of both engines for one snapshot
type Insights struct {
	UserID      string                  `json:"user_id"`
	AsOf        time.Time               `json:"as_of"`
	UsualItems  []UsualItem             `json:"usual_items"`
	UsualBasket UsualBasket             `json:"usual_basket"`
	Patterns    ShoppingPatterns        `json:"shopping_patterns"`
	Cycles      map[string]ReorderCycle `json:"reorder_cycles"`
	Due         []DueItem               `json:"due"`
	Reminders   []Reminder              `json:"reminders"`
	Bundles     []Bundle                `json:"bundles"`
	Household   HouseholdPattern        `json:"household"`
	UsualSource string                  `json:"usual_source"`
}
