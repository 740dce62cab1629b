package usecase_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

// memStore はrepositoryの約束をメモリ上で満たすテスト用ストア。
// WithinTx はエラー時に開始前の状態へ戻す
type memStore struct {
	mu sync.Mutex

	users       map[int64]model.User
	products    map[int64]model.Product
	cartItems   map[int64]model.CartItem
	addresses   map[int64]model.Address
	orders      map[int64]model.Order
	reviews     map[int64]model.Review
	adjustments map[int64]model.InventoryAdjustment
	audits      map[int64]model.AuditLog

	seq   int64
	clock time.Time
	// 操作名（"Orders.CreateBulk"など）ごとに返すエラー
	failOn map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[int64]model.User{},
		products:    map[int64]model.Product{},
		cartItems:   map[int64]model.CartItem{},
		addresses:   map[int64]model.Address{},
		orders:      map[int64]model.Order{},
		reviews:     map[int64]model.Review{},
		adjustments: map[int64]model.InventoryAdjustment{},
		audits:      map[int64]model.AuditLog{},
		clock:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		failOn:      map[string]error{},
	}
}

// 呼び出し側でロック済み
func (s *memStore) nextID() int64 {
	s.seq++
	return s.seq
}

// 作成順がCreatedAtで区別できるよう1秒ずつ進める
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) fail(op string) error {
	return s.failOn[op]
}

func (s *memStore) Users() memUsers                    { return memUsers{s} }
func (s *memStore) Reviews() memReviews                { return memReviews{s} }
func (s *memStore) Orders() repo.OrderRepository       { return memOrders{s} }
func (s *memStore) CartItems() repo.CartItemRepository { return memCart{s} }
func (s *memStore) Inventory() repo.InventoryRepository {
	return memInventory{s}
}
func (s *memStore) Products() repo.ProductRepository   { return memProducts{s} }
func (s *memStore) Addresses() repo.AddressRepository  { return memAddresses{s} }
func (s *memStore) AuditLogs() repo.AuditLogRepository { return memAudit{s} }

type memSnapshot struct {
	products    map[int64]model.Product
	cartItems   map[int64]model.CartItem
	addresses   map[int64]model.Address
	orders      map[int64]model.Order
	adjustments map[int64]model.InventoryAdjustment
	audits      map[int64]model.AuditLog
	seq         int64
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	s.mu.Lock()
	if err := s.fail("Tx.Begin"); err != nil {
		s.mu.Unlock()
		return err
	}
	snap := memSnapshot{
		products:    copyMap(s.products),
		cartItems:   copyMap(s.cartItems),
		addresses:   copyMap(s.addresses),
		orders:      copyMap(s.orders),
		adjustments: copyMap(s.adjustments),
		audits:      copyMap(s.audits),
		seq:         s.seq,
	}
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.products = snap.products
		s.cartItems = snap.cartItems
		s.addresses = snap.addresses
		s.orders = snap.orders
		s.adjustments = snap.adjustments
		s.audits = snap.audits
		s.seq = snap.seq
		s.mu.Unlock()
		return err
	}
	return nil
}

// ---- seed helpers ----

func (s *memStore) addUser(username string, role model.Role) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := model.User{ID: s.nextID(), Username: username, Role: role, Nickname: username, CreatedAt: s.tick()}
	s.users[u.ID] = u
	return u
}

func (s *memStore) addProduct(sellerID int64, name string, price string, stock int64) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.tick()
	p := model.Product{
		ID:        s.nextID(),
		SellerID:  sellerID,
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		Category:  "general",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.products[p.ID] = p
	return p
}

func (s *memStore) addAddress(userID int64, isDefault bool) model.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.tick()
	a := model.Address{
		ID:           s.nextID(),
		UserID:       userID,
		ReceiverName: "Taro",
		Phone:        "090-0000-0000",
		Province:     "Tokyo",
		City:         "Shibuya",
		Detail:       "1-2-3",
		IsDefault:    isDefault,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.addresses[a.ID] = a
	return a
}

func (s *memStore) addCartItem(userID, productID, qty int64) model.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.tick()
	it := model.CartItem{ID: s.nextID(), UserID: userID, ProductID: productID, Quantity: qty, CreatedAt: now, UpdatedAt: now}
	s.cartItems[it.ID] = it
	return it
}

func (s *memStore) addOrder(o model.Order) model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = s.nextID()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.tick()
		o.UpdatedAt = o.CreatedAt
	}
	s.orders[o.ID] = o
	return o
}

func (s *memStore) product(id int64) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id]
}

func (s *memStore) order(id int64) model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id]
}

func (s *memStore) countOrders() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *memStore) cartOf(userID int64) []model.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.CartItem
	for _, it := range s.cartItems {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) addressesOf(userID int64) []model.Address {
	list, _ := memAddresses{s}.ListByUserID(context.Background(), userID)
	return list
}

// ---- users ----

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Users.Create"); err != nil {
		return err
	}
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return repo.ErrDuplicate
		}
	}
	user.ID = r.s.nextID()
	user.CreatedAt = r.s.tick()
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.ID] = *user
	return nil
}

func (r memUsers) FindByID(_ context.Context, id int64) (model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return model.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (r memUsers) FindByUsername(_ context.Context, username string) (model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, repo.ErrNotFound
}

func (r memUsers) FindByIDs(_ context.Context, ids []int64) ([]model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.User{}
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r memUsers) UpdateProfile(_ context.Context, user model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[user.ID]
	if !ok {
		return repo.ErrNotFound
	}
	u.Nickname, u.Email, u.Phone, u.Avatar = user.Nickname, user.Email, user.Phone, user.Avatar
	r.s.users[u.ID] = u
	return nil
}

func (r memUsers) UpdatePassword(_ context.Context, userID int64, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.PasswordHash = hash
	r.s.users[u.ID] = u
	return nil
}

// ---- products ----

type memProducts struct{ s *memStore }

func sortProductsBySales(list []model.Product) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.SalesCount != b.SalesCount {
			return a.SalesCount > b.SalesCount
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

func (r memProducts) ListActive(_ context.Context, q repo.ProductListQuery) ([]model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	needle := strings.ToLower(strings.TrimSpace(q.Q))
	out := []model.Product{}
	for _, p := range r.s.products {
		if !p.IsActive || p.DeletedAt.Valid {
			continue
		}
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) &&
			!strings.Contains(strings.ToLower(p.Category), needle) {
			continue
		}
		out = append(out, p)
	}
	sortProductsBySales(out)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r memProducts) Categories(_ context.Context) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := map[string]bool{}
	out := []string{}
	for _, p := range r.s.products {
		if !p.IsActive || p.DeletedAt.Valid || p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out, nil
}

func (r memProducts) FindByID(_ context.Context, id int64) (model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok || p.DeletedAt.Valid {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r memProducts) FindByIDs(_ context.Context, ids []int64) ([]model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Product{}
	seen := map[int64]bool{}
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memProducts) ListBySeller(_ context.Context, sellerID int64) ([]model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Product{}
	for _, p := range r.s.products {
		if p.SellerID == sellerID && !p.DeletedAt.Valid {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memProducts) CountBySeller(ctx context.Context, sellerID int64) (int64, int64, error) {
	list, _ := r.ListBySeller(ctx, sellerID)
	var active int64
	for _, p := range list {
		if p.IsActive {
			active++
		}
	}
	return int64(len(list)), active, nil
}

func (r memProducts) Create(_ context.Context, p model.Product) (model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Products.Create"); err != nil {
		return model.Product{}, err
	}
	p.ID = r.s.nextID()
	p.CreatedAt = r.s.tick()
	p.UpdatedAt = p.CreatedAt
	r.s.products[p.ID] = p
	return p, nil
}

func (r memProducts) Update(_ context.Context, p model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.products[p.ID]
	if !ok || cur.DeletedAt.Valid {
		return repo.ErrNotFound
	}
	cur.Name, cur.Description, cur.Price = p.Name, p.Description, p.Price
	cur.Category, cur.Images, cur.IsActive = p.Category, p.Images, p.IsActive
	cur.UpdatedAt = r.s.tick()
	r.s.products[p.ID] = cur
	return nil
}

func (r memProducts) SetActive(_ context.Context, id int64, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.products[id]
	if !ok || cur.DeletedAt.Valid {
		return repo.ErrNotFound
	}
	cur.IsActive = active
	r.s.products[id] = cur
	return nil
}

func (r memProducts) SoftDelete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.products[id]
	if !ok || cur.DeletedAt.Valid {
		return repo.ErrNotFound
	}
	cur.DeletedAt = gorm.DeletedAt{Time: r.s.tick(), Valid: true}
	r.s.products[id] = cur
	return nil
}

// ---- inventory ----

type memInventory struct{ s *memStore }

func (r memInventory) SetStock(_ context.Context, productID int64, stock int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok || p.DeletedAt.Valid {
		return repo.ErrNotFound
	}
	p.Stock = stock
	r.s.products[productID] = p
	return nil
}

func (r memInventory) DecreaseStockIfEnough(_ context.Context, productID int64, qty int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Inventory.DecreaseStockIfEnough"); err != nil {
		return false, err
	}
	p, ok := r.s.products[productID]
	if !ok || p.DeletedAt.Valid || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	p.SalesCount += qty
	r.s.products[productID] = p
	return true, nil
}

func (r memInventory) IncreaseStock(_ context.Context, productID int64, qty int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Stock += qty
	p.SalesCount -= qty
	if p.SalesCount < 0 {
		p.SalesCount = 0
	}
	r.s.products[productID] = p
	return nil
}

func (r memInventory) CreateAdjustment(_ context.Context, adj model.InventoryAdjustment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Inventory.CreateAdjustment"); err != nil {
		return err
	}
	adj.ID = r.s.nextID()
	r.s.adjustments[adj.ID] = adj
	return nil
}

func (r memInventory) ListAdjustments(_ context.Context, productID int64, limit int) ([]model.InventoryAdjustment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.InventoryAdjustment{}
	for _, a := range r.s.adjustments {
		if a.ProductID == productID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- cart ----

type memCart struct{ s *memStore }

func (r memCart) ListByUserID(_ context.Context, userID int64) ([]model.CartItem, error) {
	return r.s.cartOf(userID), nil
}

func (r memCart) FindByID(_ context.Context, id int64) (model.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.cartItems[id]
	if !ok {
		return model.CartItem{}, repo.ErrNotFound
	}
	return it, nil
}

func (r memCart) FindByUserAndProduct(_ context.Context, userID, productID int64) (model.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, it := range r.s.cartItems {
		if it.UserID == userID && it.ProductID == productID {
			return it, nil
		}
	}
	return model.CartItem{}, repo.ErrNotFound
}

func (r memCart) Upsert(_ context.Context, userID, productID, addQty int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, it := range r.s.cartItems {
		if it.UserID == userID && it.ProductID == productID {
			it.Quantity += addQty
			r.s.cartItems[id] = it
			return nil
		}
	}
	now := r.s.tick()
	it := model.CartItem{ID: r.s.nextID(), UserID: userID, ProductID: productID, Quantity: addQty, CreatedAt: now, UpdatedAt: now}
	r.s.cartItems[it.ID] = it
	return nil
}

func (r memCart) UpdateQuantity(_ context.Context, id, qty int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.cartItems[id]
	if !ok {
		return repo.ErrNotFound
	}
	it.Quantity = qty
	r.s.cartItems[id] = it
	return nil
}

func (r memCart) DeleteByID(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.cartItems[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.cartItems, id)
	return nil
}

func (r memCart) DeleteByUserID(_ context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("CartItems.DeleteByUserID"); err != nil {
		return err
	}
	for id, it := range r.s.cartItems {
		if it.UserID == userID {
			delete(r.s.cartItems, id)
		}
	}
	return nil
}

// ---- addresses ----

type memAddresses struct{ s *memStore }

func (r memAddresses) Create(_ context.Context, a model.Address) (model.Address, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Addresses.Create"); err != nil {
		return model.Address{}, err
	}
	a.ID = r.s.nextID()
	a.CreatedAt = r.s.tick()
	a.UpdatedAt = a.CreatedAt
	r.s.addresses[a.ID] = a
	return a, nil
}

// デフォルト→新しい順
func (r memAddresses) ListByUserID(_ context.Context, userID int64) ([]model.Address, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Address{}
	for _, a := range r.s.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r memAddresses) FindByID(_ context.Context, id int64) (model.Address, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.addresses[id]
	if !ok {
		return model.Address{}, repo.ErrNotFound
	}
	return a, nil
}

func (r memAddresses) FindDefaultOrLatest(ctx context.Context, userID int64) (model.Address, error) {
	list, _ := r.ListByUserID(ctx, userID)
	if len(list) == 0 {
		return model.Address{}, repo.ErrNotFound
	}
	return list[0], nil
}

func (r memAddresses) CountByUserID(ctx context.Context, userID int64) (int64, error) {
	list, _ := r.ListByUserID(ctx, userID)
	return int64(len(list)), nil
}

func (r memAddresses) Update(_ context.Context, a model.Address) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.addresses[a.ID]
	if !ok {
		return repo.ErrNotFound
	}
	a.IsDefault = cur.IsDefault
	a.CreatedAt = cur.CreatedAt
	r.s.addresses[a.ID] = a
	return nil
}

func (r memAddresses) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.addresses[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.addresses, id)
	return nil
}

func (r memAddresses) ClearDefault(_ context.Context, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, a := range r.s.addresses {
		if a.UserID == userID && a.IsDefault {
			a.IsDefault = false
			r.s.addresses[id] = a
		}
	}
	return nil
}

func (r memAddresses) MarkDefault(_ context.Context, userID, addressID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Addresses.MarkDefault"); err != nil {
		return err
	}
	a, ok := r.s.addresses[addressID]
	if !ok || a.UserID != userID {
		return repo.ErrNotFound
	}
	a.IsDefault = true
	r.s.addresses[addressID] = a
	return nil
}

// ---- orders ----

type memOrders struct{ s *memStore }

func (r memOrders) CreateBulk(_ context.Context, orders []model.Order) ([]model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Orders.CreateBulk"); err != nil {
		return nil, err
	}
	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		o.ID = r.s.nextID()
		r.s.orders[o.ID] = o
		out = append(out, o)
	}
	return out, nil
}

func (r memOrders) FindByID(_ context.Context, id int64) (model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r memOrders) FindByIDs(_ context.Context, ids []int64) ([]model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Order{}
	for _, id := range ids {
		if o, ok := r.s.orders[id]; ok {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memOrders) list(match func(model.Order) bool, f repo.OrderListFilter) []model.Order {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Order{}
	for _, o := range r.s.orders {
		if !match(o) {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func (r memOrders) ListByBuyer(_ context.Context, buyerID int64, f repo.OrderListFilter) ([]model.Order, error) {
	return r.list(func(o model.Order) bool { return o.BuyerID == buyerID }, f), nil
}

func (r memOrders) ListBySeller(_ context.Context, sellerID int64, f repo.OrderListFilter) ([]model.Order, error) {
	sellers := map[int64]int64{}
	r.s.mu.Lock()
	for id, p := range r.s.products {
		sellers[id] = p.SellerID
	}
	r.s.mu.Unlock()
	return r.list(func(o model.Order) bool { return sellers[o.ProductID] == sellerID }, f), nil
}

func (r memOrders) Transition(_ context.Context, orderID int64, ch repo.StatusChange) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("Orders.Transition"); err != nil {
		return false, err
	}
	o, ok := r.s.orders[orderID]
	if !ok {
		return false, nil
	}
	allowed := false
	for _, st := range ch.From {
		if o.Status == st {
			allowed = true
		}
	}
	if !allowed {
		return false, nil
	}
	at := ch.At
	o.Status = ch.To
	o.UpdatedAt = at
	switch ch.To {
	case model.OrderStatusPaid:
		o.PaidAt = &at
	case model.OrderStatusShipped:
		o.ShippedAt = &at
	case model.OrderStatusCompleted:
		o.CompletedAt = &at
	case model.OrderStatusCanceled:
		o.CanceledAt = &at
	}
	if ch.AddressID != nil {
		id := *ch.AddressID
		o.AddressID = &id
	}
	if ch.Note != nil {
		o.Note = *ch.Note
	}
	if ch.TrackingNumber != nil {
		o.TrackingNumber = *ch.TrackingNumber
	}
	r.s.orders[orderID] = o
	return true, nil
}

func (r memOrders) CountByAddressID(_ context.Context, addressID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, o := range r.s.orders {
		if o.AddressID != nil && *o.AddressID == addressID {
			n++
		}
	}
	return n, nil
}

func (r memOrders) HasCompleted(_ context.Context, buyerID, productID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if o.BuyerID == buyerID && o.ProductID == productID && o.Status == model.OrderStatusCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (r memOrders) CountBySellerGroupByStatus(ctx context.Context, sellerID int64) (map[model.OrderStatus]int64, error) {
	list, _ := r.ListBySeller(ctx, sellerID, repo.OrderListFilter{})
	out := map[model.OrderStatus]int64{}
	for _, o := range list {
		out[o.Status]++
	}
	return out, nil
}

func (r memOrders) SumCompletedRevenueBySeller(ctx context.Context, sellerID int64) (decimal.Decimal, error) {
	list, _ := r.ListBySeller(ctx, sellerID, repo.OrderListFilter{Status: model.OrderStatusCompleted})
	total := decimal.Zero
	for _, o := range list {
		total = total.Add(o.TotalPrice)
	}
	return total, nil
}

// ---- reviews ----

type memReviews struct{ s *memStore }

func (r memReviews) Create(_ context.Context, rv model.Review) (model.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, cur := range r.s.reviews {
		if cur.UserID == rv.UserID && cur.ProductID == rv.ProductID {
			return model.Review{}, repo.ErrDuplicate
		}
	}
	rv.ID = r.s.nextID()
	rv.CreatedAt = r.s.tick()
	r.s.reviews[rv.ID] = rv
	return rv, nil
}

func (r memReviews) Exists(_ context.Context, userID, productID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, cur := range r.s.reviews {
		if cur.UserID == userID && cur.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (r memReviews) ListByProduct(_ context.Context, productID int64, limit int) ([]model.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Review{}
	for _, rv := range r.s.reviews {
		if rv.ProductID == productID {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memReviews) CountByProducts(_ context.Context, ids []int64) (map[int64]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := map[int64]int64{}
	for _, rv := range r.s.reviews {
		if want[rv.ProductID] {
			out[rv.ProductID]++
		}
	}
	return out, nil
}

// ---- audit logs ----

type memAudit struct{ s *memStore }

func (r memAudit) Create(_ context.Context, log model.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("AuditLogs.Create"); err != nil {
		return err
	}
	log.ID = r.s.nextID()
	r.s.audits[log.ID] = log
	return nil
}

func (r memAudit) List(_ context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.AuditLog{}
	for _, l := range r.s.audits {
		if f.ActorUserID != nil && l.ActorUserID != *f.ActorUserID {
			continue
		}
		if f.ResourceType != nil && l.ResourceType != *f.ResourceType {
			continue
		}
		if f.ResourceID != nil && l.ResourceID != *f.ResourceID {
			continue
		}
		if f.BeforeID > 0 && l.ID >= f.BeforeID {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

var (
	_ repo.TransactionManager = (*memStore)(nil)
	_ repo.TxRepos            = (*memStore)(nil)
	_ repo.UserRepository     = memUsers{}
	_ repo.ReviewRepository   = memReviews{}
)

func completeChange() repo.StatusChange {
	return repo.StatusChange{
		From: []model.OrderStatus{model.OrderStatusShipped},
		To:   model.OrderStatusCompleted,
		At:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}
