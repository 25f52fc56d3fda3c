package email

const (
	subjectLeadAssignedFmt = "New lead assigned: %s"
	subjectFollowUpDueFmt  = "Follow-up due: %s"
	subjectDealWonFmt      = "Deal won: %s"
	subjectContractFmt     = "Contract %s %s"
)
