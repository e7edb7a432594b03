package pay

import "html/template"

type pageData struct {
	Key         string
	Amount      int64
	Currency    string
	OrderID     string
	Merchant    string
	Description string
	Display     string
	Name        string
	Email       string
	Phone       string
	SuccessURL  string
	DismissURL  string
}

var checkoutPage = template.Must(template.New("checkout").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Merchant}} payment</title>
<script src="https://checkout.razorpay.com/v1/checkout.js"></script>
</head>
<body>
<p id="status">Opening payment for {{.Display}}...</p>
<script>
function report(url, body, text) {
  fetch(url, {method: "POST", headers: {"Content-Type": "application/json"}, body: JSON.stringify(body)})
    .then(function () { document.getElementById("status").innerText = text; });
}
var rzp = new Razorpay({
  key: {{.Key}},
  amount: {{.Amount}},
  currency: {{.Currency}},
  name: {{.Merchant}},
  description: {{.Description}},
  order_id: {{.OrderID}},
  prefill: {name: {{.Name}}, email: {{.Email}}, contact: {{.Phone}}},
  handler: function (resp) {
    report({{.SuccessURL}}, resp, "Payment received. You can close this tab.");
  },
  modal: {
    ondismiss: function () {
      report({{.DismissURL}}, {}, "Payment cancelled. You can close this tab.");
    }
  }
});
rzp.open();
</script>
</body>
</html>
`))
