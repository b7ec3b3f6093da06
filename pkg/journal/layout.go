package journal

import "tradejournal/pkg/recordstore"

// Persisted layout names.
const (
	AccountsCollection = "accounts"
	TradesCollection   = "trades"
	GoalsCollection    = "goals"
	AccountIDIndex     = "accountId"
	DateIndex          = "date"
	PeriodIndex        = "period"

	VersionKey        = "kdm_journal_data_version"
	LegacyTradesKey   = "kdm_journal_trades"
	LegacyAccountsKey = "kdm_journal_accounts"

	LegacyDailyGoalsKey   = "kdm_journal_daily_goals"
	LegacyWeeklyGoalsKey  = "kdm_journal_weekly_goals"
	LegacyMonthlyGoalsKey = "kdm_journal_monthly_goals"
)

// Schema generations.
const (
	GenerationLegacy      = 1
	GenerationCollections = 2
	GenerationGoals       = 3
	CurrentGeneration     = GenerationGoals
)

// Schema declares the collections the journal keeps in the record store.
func Schema() recordstore.Schema {
	return recordstore.Schema{Collections: []recordstore.CollectionSpec{
		{Name: AccountsCollection},
		{Name: TradesCollection, Indexes: []recordstore.IndexSpec{
			{Name: AccountIDIndex, KeyPath: "accountId"},
			// Exact-match only. Range and period filters run in memory on
			// parsed times; stored RFC 3339 strings do not sort lexically.
			{Name: DateIndex, KeyPath: "date"},
		}},
		{Name: GoalsCollection, Indexes: []recordstore.IndexSpec{
			{Name: PeriodIndex, KeyPath: "period"},
		}},
	}}
}

func accountCollection(s *recordstore.Store) *recordstore.Collection[Account] {
	return recordstore.NewCollection[Account](s, AccountsCollection)
}

func tradeCollection(s *recordstore.Store) *recordstore.Collection[Trade] {
	return recordstore.NewCollection[Trade](s, TradesCollection)
}

func goalCollection(s *recordstore.Store) *recordstore.Collection[Goal] {
	return recordstore.NewCollection[Goal](s, GoalsCollection)
}
