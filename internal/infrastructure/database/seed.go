// internal/infrastructure/database/seed.go
package database

import (
	"fmt"
	"time"

	"github.com/farumdev/bookstore-backend/internal/domain/coupon"
	"github.com/farumdev/bookstore-backend/internal/domain/payment"
	"github.com/farumdev/bookstore-backend/internal/domain/product"
	"github.com/farumdev/bookstore-backend/internal/domain/user"
	"github.com/farumdev/bookstore-backend/internal/pkg/money"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seed loads the demo catalog, accounts, coupons, reviews and payment
// methods into an empty database. A database that already has users is
// left untouched.
func Seed(db *gorm.DB, bcryptCost int, logger *logrus.Logger) error {
	var users int64
	if err := db.Model(&user.User{}).Count(&users).Error; err != nil {
		return fmt.Errorf("failed to inspect users: %w", err)
	}
	if users > 0 {
		logger.Info("Database already seeded, skipping")
		return nil
	}

	now := time.Now().UTC()
	err := db.Transaction(func(tx *gorm.DB) error {
		steps := []struct {
			name string
			run  func(*gorm.DB) error
		}{
			{"users", func(tx *gorm.DB) error { return seedUsers(tx, bcryptCost, now) }},
			{"addresses", seedAddresses},
			{"products", seedCatalog},
			{"coupons", func(tx *gorm.DB) error { return seedCoupons(tx, now) }},
			{"reviews", func(tx *gorm.DB) error { return seedReviewRows(tx, now) }},
			{"payment methods", func(tx *gorm.DB) error { return seedPaymentMethods(tx, now) }},
		}
		for _, step := range steps {
			if err := step.run(tx); err != nil {
				return fmt.Errorf("failed to seed %s: %w", step.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if db.Dialector.Name() == "postgres" {
		if err := resetSequences(db); err != nil {
			return err
		}
	}

	logger.WithFields(logrus.Fields{
		"products": len(seedProducts),
		"reviews":  len(seedReviews),
	}).Info("Seed data loaded")
	return nil
}

// resetSequences moves postgres serials past the explicit seed ids
func resetSequences(db *gorm.DB) error {
	for _, table := range []string{"users", "addresses", "products", "coupons", "payment_methods"} {
		stmt := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), (SELECT MAX(id) FROM %s))", table, table)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to reset %s sequence: %w", table, err)
		}
	}
	return nil
}

type seedUser struct {
	user.User
	password  string
	monthsAgo int
}

func seedUsers(tx *gorm.DB, cost int, now time.Time) error {
	accounts := []seedUser{
		{user.User{ID: 1, Username: "admin", Role: "Admin", Email: "admin@littlebugshop.com", FirstName: "Admin", LastName: "User", PhoneNumber: "+1-555-0100"}, "admin123", 6},
		{user.User{ID: 2, Username: "User", Role: "User", Email: "user@example.com", FirstName: "John", LastName: "Doe", PhoneNumber: "+1-555-0101"}, "qazwsxedcrfv12345", 3},
		{user.User{ID: 3, Username: "User2", Role: "User", Email: "user2@example.com", FirstName: "Jane", LastName: "Smith", PhoneNumber: "+1-555-0102"}, "password2", 2},
	}

	for _, account := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(account.password), cost)
		if err != nil {
			return err
		}
		u := account.User
		u.Password = string(hash)
		u.CreatedAt = now.AddDate(0, -account.monthsAgo, 0)
		u.UpdatedAt = u.CreatedAt
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedAddresses(tx *gorm.DB) error {
	addresses := []user.Address{
		{ID: 1, UserID: 1, AddressType: user.AddressTypeBoth, Street: "123 Admin Street", City: "New York", State: "NY", PostalCode: "10001", Country: "USA", IsDefault: true},
		{ID: 2, UserID: 2, AddressType: user.AddressTypeShipping, Street: "456 Oak Avenue", City: "Los Angeles", State: "CA", PostalCode: "90001", Country: "USA", IsDefault: true},
		{ID: 3, UserID: 2, AddressType: user.AddressTypeBilling, Street: "789 Pine Road", City: "Los Angeles", State: "CA", PostalCode: "90002", Country: "USA"},
		{ID: 4, UserID: 3, AddressType: user.AddressTypeBoth, Street: "321 Maple Lane", City: "Chicago", State: "IL", PostalCode: "60601", Country: "USA", IsDefault: true},
	}
	return tx.Create(&addresses).Error
}

func seedCatalog(tx *gorm.DB) error {
	products := make([]product.Product, len(seedProducts))
	copy(products, seedProducts)
	return tx.Create(&products).Error
}

func seedCoupons(tx *gorm.DB, now time.Time) error {
	in30 := now.AddDate(0, 0, 30)
	ago5 := now.AddDate(0, 0, -5)
	hundred, fifty := 100, 50

	coupons := []coupon.Coupon{
		{ID: 1, Code: "SAVE10", Type: coupon.DiscountTypePercentage, Value: money.MustParse("10"), IsActive: true, CreatedAt: now.AddDate(0, 0, -30)},
		{ID: 2, Code: "WELCOME5", Type: coupon.DiscountTypeFixedAmount, Value: money.MustParse("5.00"), IsActive: true, CreatedAt: now.AddDate(0, 0, -30)},
		{ID: 3, Code: "WINTER20", Type: coupon.DiscountTypePercentage, Value: money.MustParse("20"), ExpirationDate: &in30, MaxUsesTotal: &hundred, IsActive: true, CurrentUses: 15, CreatedAt: now.AddDate(0, 0, -15)},
		{ID: 4, Code: "EXPIRED", Type: coupon.DiscountTypePercentage, Value: money.MustParse("15"), ExpirationDate: &ago5, IsActive: true, CurrentUses: 25, CreatedAt: now.AddDate(0, 0, -60)},
		{ID: 5, Code: "LIMITED50", Type: coupon.DiscountTypeFixedAmount, Value: money.MustParse("10.00"), MaxUsesTotal: &fifty, IsActive: true, CurrentUses: 50, CreatedAt: now.AddDate(0, 0, -20)},
		{ID: 6, Code: "INACTIVE", Type: coupon.DiscountTypePercentage, Value: money.MustParse("25"), CreatedAt: now.AddDate(0, 0, -10)},
	}
	if err := tx.Create(&coupons).Error; err != nil {
		return err
	}
	// gorm skips false zero values on insert and the column defaults to true
	return tx.Model(&coupon.Coupon{}).Where("code = ?", "INACTIVE").Update("is_active", false).Error
}

func seedReviewRows(tx *gorm.DB, now time.Time) error {
	base := now.AddDate(0, 0, -30)
	reviews := make([]product.Review, len(seedReviews))
	for i, r := range seedReviews {
		created := base.AddDate(0, 0, -r.daysAgo)
		reviews[i] = product.Review{
			ProductID:          r.productID,
			UserID:             r.userID,
			UserName:           r.userName,
			Rating:             r.rating,
			ReviewText:         r.text,
			IsVerifiedPurchase: r.verified,
			HelpfulCount:       r.helpful,
			CreatedAt:          created,
			UpdatedAt:          created,
		}
	}
	return tx.Create(&reviews).Error
}

func seedPaymentMethods(tx *gorm.DB, now time.Time) error {
	card := func(id, userID uint, t payment.MethodType, holder, last4, month, year string, isDefault bool, created time.Time) payment.PaymentMethod {
		masked := "**** **** **** " + last4
		return payment.PaymentMethod{
			ID:               id,
			UserID:           userID,
			Type:             t,
			CardHolderName:   &holder,
			CardNumberMasked: &masked,
			CardNumberLast4:  &last4,
			ExpiryMonth:      &month,
			ExpiryYear:       &year,
			IsDefault:        isDefault,
			CreatedAt:        created,
		}
	}
	paypal := "john.doe@example.com"

	methods := []payment.PaymentMethod{
		card(1, 1, payment.MethodTypeCreditCard, "Admin User", "0000", "12", "2027", true, now.AddDate(0, -3, 0)),
		card(2, 1, payment.MethodTypeDebitCard, "Admin User", "1111", "06", "2026", false, now.AddDate(0, -2, 0)),
		card(3, 2, payment.MethodTypeCreditCard, "John Doe", "0000", "03", "2028", true, now.AddDate(0, -4, 0)),
		card(4, 2, payment.MethodTypeCreditCard, "John Doe", "1111", "09", "2027", false, now.AddDate(0, -3, 0)),
		{ID: 5, UserID: 2, Type: payment.MethodTypePayPal, PayPalEmail: &paypal, CreatedAt: now.AddDate(0, -1, 0)},
		card(6, 3, payment.MethodTypeCreditCard, "Jane Smith", "2222", "11", "2026", true, now.AddDate(0, -2, 0)),
		card(7, 3, payment.MethodTypeCreditCard, "Jane Smith", "3333", "05", "2028", false, now.AddDate(0, -1, 0)),
		card(8, 2, payment.MethodTypeDebitCard, "John Doe", "4444", "02", "2025", false, now.AddDate(0, 0, -30)),
		card(9, 2, payment.MethodTypeCreditCard, "John Doe", "6666", "08", "2029", false, now.AddDate(0, 0, -15)),
	}
	return tx.Create(&methods).Error
}

var seedProducts = []product.Product{
	{ID: 1, Name: "The Great Gatsby", Author: "F. Scott Fitzgerald", Genre: "Classic Fiction", ISBN: "978-0743273565", Price: money.MustParse("10.99"), Description: "A novel written by American author F. Scott Fitzgerald.", Type: "Book", StockQuantity: 15, LowStockThreshold: 5},
	{ID: 2, Name: "1984", Author: "George Orwell", Genre: "Dystopian Fiction", ISBN: "978-0451524935", Price: money.MustParse("8.99"), Description: "A dystopian social science fiction novel and cautionary tale, written by the English writer George Orwell.", Type: "Book", StockQuantity: 20, LowStockThreshold: 5},
	{ID: 3, Name: "To Kill a Mockingbird", Author: "Harper Lee", Genre: "Classic Fiction", ISBN: "978-0061120084", Price: money.MustParse("7.99"), Description: "A novel by Harper Lee published in 1960. Instantly successful, widely read in high schools and middle schools in the United States.", Type: "Book", StockQuantity: 12, LowStockThreshold: 5},
	{ID: 4, Name: "The Catcher in the Rye", Author: "J. D. Salinger", Genre: "Classic Fiction", ISBN: "978-0316769488", Price: money.MustParse("6.99"), Description: "A novel by J. D. Salinger, partially published in serial form in 1945-1946 and as a novel in 1951.", Type: "Book", StockQuantity: 8, LowStockThreshold: 5},
	{ID: 5, Name: "Pride and Prejudice", Author: "Jane Austen", Genre: "Romance", ISBN: "978-0141439518", Price: money.MustParse("9.99"), Description: "A romantic novel of manners written by Jane Austen in 1813.", Type: "Book", StockQuantity: 25, LowStockThreshold: 5},
	{ID: 6, Name: "Moby-Dick", Author: "Herman Melville", Genre: "Adventure", ISBN: "978-1503280786", Price: money.MustParse("11.99"), Description: "A novel by Herman Melville, published in 1851 during the period of the American Renaissance.", Type: "Book", StockQuantity: 3, LowStockThreshold: 5},
	{ID: 7, Name: "War and Peace", Author: "Leo Tolstoy", Genre: "Historical Fiction", ISBN: "978-0199232765", Price: money.MustParse("12.99"), Description: "A novel by the Russian author Leo Tolstoy, published from 1865 to 1869.", Type: "Book", StockQuantity: 10, LowStockThreshold: 5},
	{ID: 8, Name: "The Odyssey", Author: "Homer", Genre: "Epic Poetry", ISBN: "978-0140268867", Price: money.MustParse("13.99"), Description: "An ancient Greek epic poem attributed to Homer.", Type: "Book", StockQuantity: 7, LowStockThreshold: 5},
	{ID: 9, Name: "Crime and Punishment", Author: "Fyodor Dostoevsky", Genre: "Psychological Fiction", ISBN: "978-0486415871", Price: money.MustParse("14.99"), Description: "A novel by the Russian author Fyodor Dostoevsky.", Type: "Book", StockQuantity: 14, LowStockThreshold: 5},
	{ID: 10, Name: "The Brothers Karamazov", Author: "Fyodor Dostoevsky", Genre: "Psychological Fiction", ISBN: "978-0374528379", Price: money.MustParse("15.99"), Description: "A novel by the Russian author Fyodor Dostoevsky.", Type: "Book", StockQuantity: 6, LowStockThreshold: 5},
	{ID: 11, Name: "Brave New World", Author: "Aldous Huxley", Genre: "Dystopian Fiction", ISBN: "978-0060850524", Price: money.MustParse("16.99"), Description: "A dystopian social science fiction novel by English author Aldous Huxley.", Type: "Book", StockQuantity: 18, LowStockThreshold: 5},
	{ID: 12, Name: "Jane Eyre", Author: "Charlotte Brontë", Genre: "Romance", ISBN: "978-0141441146", Price: money.MustParse("17.99"), Description: "A novel by English writer Charlotte Brontë, published under the pen name 'Currer Bell'.", Type: "Book", StockQuantity: 22, LowStockThreshold: 5},
	{ID: 13, Name: "Wuthering Heights", Author: "Emily Brontë", Genre: "Gothic Fiction", ISBN: "978-0141439556", Price: money.MustParse("18.99"), Description: "A novel by Emily Brontë published in 1847 under her pseudonym Ellis Bell.", Type: "Book", StockQuantity: 11, LowStockThreshold: 5},
	{ID: 14, Name: "The Divine Comedy", Author: "Dante Alighieri", Genre: "Epic Poetry", ISBN: "978-0142437223", Price: money.MustParse("19.99"), Description: "An Italian narrative poem by Dante Alighieri, begun in 1308 and completed in 1320.", Type: "Book", StockQuantity: 5, LowStockThreshold: 5},
	{ID: 15, Name: "The Hobbit", Author: "J. R. R. Tolkien", Genre: "Fantasy", ISBN: "978-0547928227", Price: money.MustParse("20.99"), Description: "A children's fantasy novel by English author J. R. R. Tolkien.", Type: "Book", StockQuantity: 30, LowStockThreshold: 5},
	{ID: 16, Name: "The Lord of the Rings", Author: "J. R. R. Tolkien", Genre: "Fantasy", ISBN: "978-0544003415", Price: money.MustParse("21.99"), Description: "An epic high-fantasy novel by English author and scholar J. R. R. Tolkien.", Type: "Book", StockQuantity: 28, LowStockThreshold: 5},
	{ID: 17, Name: "Harry Potter and the Sorcerer's Stone", Author: "J. K. Rowling", Genre: "Fantasy", ISBN: "978-0590353427", Price: money.MustParse("22.99"), Description: "A fantasy novel written by British author J. K. Rowling.", Type: "Book", StockQuantity: 50, LowStockThreshold: 10},
	{ID: 18, Name: "Harry Potter and the Chamber of Secrets", Author: "J. K. Rowling", Genre: "Fantasy", ISBN: "978-0439064873", Price: money.MustParse("23.99"), Description: "A fantasy novel written by British author J. K. Rowling.", Type: "Book", StockQuantity: 45, LowStockThreshold: 10},
	{ID: 19, Name: "Harry Potter and the Prisoner of Azkaban", Author: "J. K. Rowling", Genre: "Fantasy", ISBN: "978-0439136365", Price: money.MustParse("24.99"), Description: "A fantasy novel written by British author J. K. Rowling.", Type: "Book", StockQuantity: 42, LowStockThreshold: 10},
	{ID: 20, Name: "Harry Potter and the Goblet of Fire", Author: "J. K. Rowling", Genre: "Fantasy", ISBN: "978-0439139601", Price: money.MustParse("25.99"), Description: "A fantasy novel written by British author J. K. Rowling.", Type: "Book", StockQuantity: 38, LowStockThreshold: 10},
	{ID: 21, Name: "Harry Potter and the Order of the Phoenix", Author: "J. K. Rowling", Genre: "Fantasy", ISBN: "978-0439358071", Price: money.MustParse("26.99"), Description: "A fantasy novel written by British author J. K. Rowling.", Type: "Book", StockQuantity: 35, LowStockThreshold: 10},
	{ID: 22, Name: "Harry Potter and the Half-Blood Prince", Author: "J. K. Rowling", Genre: "Fantasy", ISBN: "978-0439785969", Price: money.MustParse("27.99"), Description: "A fantasy novel written by British author J. K. Rowling.", Type: "Book", StockQuantity: 32, LowStockThreshold: 10},
	{ID: 23, Name: "Harry Potter and the Deathly Hallows", Author: "J. K. Rowling", Genre: "Fantasy", ISBN: "978-0545139700", Price: money.MustParse("28.99"), Description: "A fantasy novel written by British author J. K. Rowling.", Type: "Book", StockQuantity: 40, LowStockThreshold: 10},
	{ID: 24, Name: "The Chronicles of Narnia", Author: "C. S. Lewis", Genre: "Fantasy", ISBN: "978-0066238500", Price: money.MustParse("29.99"), Description: "A series of seven fantasy novels by British author C. S. Lewis.", Type: "Book", StockQuantity: 24, LowStockThreshold: 5},
	{ID: 25, Name: "The Hunger Games", Author: "Suzanne Collins", Genre: "Dystopian Fiction", ISBN: "978-0439023528", Price: money.MustParse("30.99"), Description: "A dystopian novel by the American writer Suzanne Collins.", Type: "Book", StockQuantity: 33, LowStockThreshold: 10},
	{ID: 26, Name: "Catching Fire", Author: "Suzanne Collins", Genre: "Dystopian Fiction", ISBN: "978-0439023498", Price: money.MustParse("31.99"), Description: "A dystopian novel by the American writer Suzanne Collins.", Type: "Book", StockQuantity: 30, LowStockThreshold: 10},
	{ID: 27, Name: "Mockingjay", Author: "Suzanne Collins", Genre: "Dystopian Fiction", ISBN: "978-0439023511", Price: money.MustParse("32.99"), Description: "A dystopian novel by the American writer Suzanne Collins.", Type: "Book", StockQuantity: 28, LowStockThreshold: 10},
	{ID: 28, Name: "The Maze Runner", Author: "James Dashner", Genre: "Young Adult", ISBN: "978-0385737951", Price: money.MustParse("33.99"), Description: "A young adult dystopian science fiction novel written by American author James Dashner.", Type: "Book", StockQuantity: 19, LowStockThreshold: 5},
	{ID: 29, Name: "The Scorch Trials", Author: "James Dashner", Genre: "Young Adult", ISBN: "978-0385738767", Price: money.MustParse("34.99"), Description: "A young adult dystopian science fiction novel written by American author James Dashner.", Type: "Book", StockQuantity: 16, LowStockThreshold: 5},
	{ID: 30, Name: "The Death Cure", Author: "James Dashner", Genre: "Young Adult", ISBN: "978-0385738774", Price: money.MustParse("35.99"), Description: "A young adult dystopian science fiction novel written by American author James Dashner.", Type: "Book", StockQuantity: 14, LowStockThreshold: 5},
	{ID: 31, Name: "Divergent", Author: "Veronica Roth", Genre: "Young Adult", ISBN: "978-0062024039", Price: money.MustParse("36.99"), Description: "A dystopian novel by the American author Veronica Roth.", Type: "Book", StockQuantity: 21, LowStockThreshold: 5},
	{ID: 32, Name: "Insurgent", Author: "Veronica Roth", Genre: "Young Adult", ISBN: "978-0062024053", Price: money.MustParse("37.99"), Description: "A dystopian novel by the American author Veronica Roth.", Type: "Book", StockQuantity: 18, LowStockThreshold: 5},
	{ID: 33, Name: "Allegiant", Author: "Veronica Roth", Genre: "Young Adult", ISBN: "978-0062024077", Price: money.MustParse("38.99"), Description: "A dystopian novel by the American author Veronica Roth.", Type: "Book", StockQuantity: 15, LowStockThreshold: 5},
	{ID: 34, Name: "The Fault in Our Stars", Author: "John Green", Genre: "Young Adult", ISBN: "978-0142424179", Price: money.MustParse("39.99"), Description: "A novel by John Green.", Type: "Book", StockQuantity: 0, LowStockThreshold: 5},
	{ID: 35, Name: "Looking for Alaska", Author: "John Green", Genre: "Young Adult", ISBN: "978-0142402511", Price: money.MustParse("40.99"), Description: "A novel by John Green.", Type: "Book", StockQuantity: 2, LowStockThreshold: 5},
}

type seedReview struct {
	productID uint
	userID    uint
	userName  string
	rating    int
	text      string
	verified  bool
	helpful   int
	daysAgo   int
}

// daysAgo counts back from a base date thirty days in the past
var seedReviews = []seedReview{
	{17, 2, "User", 5, "A magical journey! This book captivated me from the very first page. Perfect introduction to the wizarding world.", false, 12, 25},
	{17, 3, "User2", 5, "My child loved this book and so did I! Great for all ages.", false, 8, 20},
	{17, 1, "admin", 4, "Excellent start to the series. A bit slow in places but overall fantastic.", false, 5, 15},
	{18, 2, "User", 5, "Even better than the first! The mystery kept me guessing until the end.", false, 10, 24},
	{18, 3, "User2", 4, "Great continuation of the series. Can't wait to read the next one!", false, 6, 18},
	{15, 1, "admin", 5, "A timeless classic! Tolkien's world-building is unparalleled.", false, 15, 28},
	{15, 2, "User", 4, "Wonderful adventure story, though the pacing is a bit slow at times.", false, 7, 22},
	{15, 3, "User2", 5, "Perfect blend of adventure and fantasy. Highly recommend!", false, 9, 16},
	{1, 2, "User", 4, "A brilliant portrayal of the American Dream. Fitzgerald's prose is beautiful.", false, 11, 27},
	{1, 3, "User2", 3, "Well-written but not my favorite. Characters are hard to relate to.", false, 4, 19},
	{2, 1, "admin", 5, "Essential reading. A powerful story about justice and morality.", false, 20, 26},
	{2, 2, "User", 5, "One of the best books I've ever read. Atticus Finch is an incredible character.", false, 14, 21},
	{2, 3, "User2", 5, "Beautifully written and deeply moving. A must-read classic.", false, 16, 14},
	{3, 2, "User", 5, "Chilling and relevant. Orwell's vision is more important than ever.", true, 18, 23},
	{3, 1, "admin", 4, "Thought-provoking and disturbing. A bit depressing but necessary reading.", false, 9, 17},
	{25, 3, "User2", 5, "Fast-paced and exciting! Couldn't put it down.", false, 13, 12},
	{25, 2, "User", 4, "Great dystopian adventure. Katniss is a strong protagonist.", false, 8, 10},
	{11, 1, "admin", 5, "Brilliant dystopian vision. Huxley was ahead of his time.", false, 10, 13},
	{11, 3, "User2", 4, "Fascinating world-building. Makes you think about modern society.", false, 6, 8},
	{4, 2, "User", 5, "Timeless romance with witty dialogue. Elizabeth and Darcy are perfect!", false, 17, 11},
	{4, 3, "User2", 5, "My favorite Jane Austen novel. The character development is superb.", false, 12, 7},
	{16, 1, "admin", 5, "The pinnacle of fantasy literature. An epic journey in every sense.", false, 22, 9},
	{16, 2, "User", 4, "Amazing world and story, though quite lengthy. Worth the read!", false, 11, 6},
	{5, 3, "User2", 3, "Not as engaging as I hoped. The writing style didn't resonate with me.", false, 2, 5},
	{19, 2, "User", 5, "The best book in the Harry Potter series! The time-turner plot is brilliant.", false, 15, 3},
	{24, 1, "admin", 5, "Narnia is a magical world. C.S. Lewis created something truly special.", false, 14, 2},
	{31, 3, "User2", 4, "Interesting take on dystopian society with the faction system.", false, 7, 1},
}
