package routes

import "github.com/tedsuo/rata"

const (
	Tender          = "tender"
	TenderAuction   = "tender_auction"
	PatchLotAuction = "patch_lot_auction"
	PostLotAuction  = "post_lot_auction"
)

var TenderRoutes = rata.Routes{
	{Name: Tender, Method: "GET", Path: "/tenders/:tender_id"},
	{Name: TenderAuction, Method: "GET", Path: "/tenders/:tender_id/auction"},
	{Name: PatchLotAuction, Method: "PATCH", Path: "/tenders/:tender_id/auction/:lot_id"},
	{Name: PostLotAuction, Method: "POST", Path: "/tenders/:tender_id/auction/:lot_id"},
}
