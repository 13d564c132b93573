package sql

import (
	_ "embed"
)

//go:embed queries/get_market.sql
var GetMarket string

//go:embed queries/list_markets.sql
var ListMarkets string

//go:embed queries/get_tagged_ccns.sql
var GetTaggedCCNs string

//go:embed queries/list_team_tags.sql
var ListTeamTags string
