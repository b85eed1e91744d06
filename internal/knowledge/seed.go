package knowledge

// DefaultEntries is the company knowledge a fresh database is seeded with.
func DefaultEntries() []Entry {
	return []Entry{
		{
			Category: "Pricing",
			Question: "What are our pricing tiers?",
			Answer: "We offer three pricing tiers:\n" +
				"- Starter: $29/month - Perfect for small teams (up to 5 users)\n" +
				"- Professional: $99/month - For growing businesses (up to 20 users)\n" +
				"- Enterprise: Custom pricing - Unlimited users with dedicated support\n\n" +
				"All plans include a 14-day free trial with no credit card required.",
			Keywords: []string{"pricing", "cost", "price", "tiers", "plans", "subscription"},
		},
		{
			Category: "Pricing",
			Question: "Do we offer discounts?",
			Answer: "Yes! We offer:\n" +
				"- 20% discount for annual billing (save 2+ months)\n" +
				"- 15% discount for non-profits and educational institutions\n" +
				"- Volume discounts for Enterprise plans (contact sales)\n" +
				"- Seasonal promotions (check our website for current offers)",
			Keywords: []string{"discount", "sale", "promotion", "save", "cheaper"},
		},
		{
			Category: "Shipping",
			Question: "What is our shipping policy?",
			Answer: "Shipping Information:\n" +
				"- Free standard shipping on all orders over $50\n" +
				"- Standard shipping: 5-7 business days ($5.99)\n" +
				"- Express shipping: 2-3 business days ($14.99)\n" +
				"- Overnight shipping: Next business day ($24.99)\n\n" +
				"International shipping available with rates calculated at checkout.",
			Keywords: []string{"shipping", "delivery", "ship", "send", "mail", "freight"},
		},
		{
			Category: "Returns",
			Question: "What is our return policy?",
			Answer: "Return Policy:\n" +
				"- 30-day money-back guarantee on all products\n" +
				"- Items must be unused and in original packaging\n" +
				"- Free return shipping for defective items\n" +
				"- Refunds processed within 5-7 business days\n" +
				"- Exchanges available for different sizes/colors\n\n" +
				"To initiate a return, contact support@company.com with your order number.",
			Keywords: []string{"return", "refund", "exchange", "money back", "warranty"},
		},
		{
			Category: "Products",
			Question: "What products do we offer?",
			Answer: "Our Product Line:\n" +
				"- Software Platform: Cloud-based business management solution\n" +
				"- Mobile Apps: iOS and Android applications included\n" +
				"- API Access: RESTful API for integrations (Professional+ plans)\n" +
				"- Documentation: Detailed product information and user guides available\n" +
				"- Training: Online courses and documentation included\n" +
				"- Support: Email support (all plans), priority support (Professional+), dedicated account manager (Enterprise)",
			Keywords: []string{"product", "features", "capabilities", "what do you offer", "services"},
		},
		{
			Category: "Support",
			Question: "What support options are available?",
			Answer: "Support Channels:\n" +
				"- Email Support: support@company.com (response within 24 hours)\n" +
				"- Live Chat: Available Mon-Fri, 9 AM - 6 PM EST\n" +
				"- Phone Support: Professional and Enterprise plans only\n" +
				"- Knowledge Base: Comprehensive documentation and tutorials\n" +
				"- Community Forum: Connect with other users\n" +
				"- Training: Video tutorials and webinars\n\n" +
				"Premium Support (Enterprise): Dedicated account manager, priority response (2-hour SLA), custom training sessions.",
			Keywords: []string{"support", "help", "assistance", "contact", "service"},
		},
		{
			Category: "Technical",
			Question: "What are the technical requirements?",
			Answer: "Technical Requirements:\n" +
				"- Browser: Latest version of Chrome, Firefox, Safari, or Edge\n" +
				"- Internet: Broadband connection recommended\n" +
				"- Mobile: iOS 13+ or Android 8+\n" +
				"- Integrations: Connect with Slack, Google Workspace, Microsoft 365, Salesforce, and 100+ other apps\n" +
				"- Security: SOC 2 Type II certified, GDPR compliant, SSL encryption\n" +
				"- Uptime: 99.9% guaranteed uptime SLA",
			Keywords: []string{"technical", "requirements", "compatibility", "integration", "security", "system"},
		},
		{
			Category: "Company",
			Question: "About our company",
			Answer: "About Us:\n" +
				"- Founded in 2020 with a mission to simplify business operations\n" +
				"- Serving 10,000+ customers across 50 countries\n" +
				"- Headquartered in San Francisco, CA with remote team worldwide\n" +
				"- Award-winning customer service (95% satisfaction rating)\n" +
				"- Committed to sustainability and social responsibility\n" +
				"- Regular product updates and feature releases\n\n" +
				"Our Vision: Empowering businesses to work smarter, not harder.",
			Keywords: []string{"company", "about", "who are you", "background", "history"},
		},
	}
}
