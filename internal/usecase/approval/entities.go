package approval

type ApproveInput struct {
	LoanNumber string
	AdminID    string // 32-char hex
}

type RejectInput struct {
	LoanNumber string
	AdminID    string
	Reason     string
}

type DisburseInput struct {
	LoanNumber  string
	AdminID     string
	Method      string
	Description string
}

type DefaultInput struct {
	LoanNumber string
	AdminID    string
	Reason     string
}
