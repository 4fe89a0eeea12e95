package web

// Single page dashboard. It renders the "state" events pushed over /events and
// posts every action to the JSON API.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Paydash</title>
  <link href="https://fonts.googleapis.com/css2?family=Space+Mono:wght@400;700&display=swap" rel="stylesheet">
  <style>
    :root { --bg:#ffffff; --ink:#111111; --ink-soft:#9c9c9c; --panel:#f6f6f6; --accent:#667eea; }
    body.dark-mode { --bg:#1a1a2e; --ink:#e2e8f0; --ink-soft:#8892a6; --panel:#23233a; }
    * { box-sizing:border-box; }
    body { margin:0; padding:2rem; background:var(--bg); color:var(--ink); font-family:'Space Mono',monospace; }
    section { background:var(--panel); padding:1rem; margin-bottom:1rem; border-radius:6px; }
    h2 { margin-top:0; font-size:1rem; text-transform:uppercase; letter-spacing:.08em; }
    .grid { display:grid; grid-template-columns:repeat(auto-fill,minmax(220px,1fr)); gap:.75rem; }
    .card { border:1px solid var(--ink-soft); padding:.75rem; border-radius:4px; }
    .status.success, .positive { color:#28a745; } .status.pending { color:#ffc107; } .status.failed, .negative { color:#dc3545; }
    .transaction-item { display:flex; justify-content:space-between; border-bottom:1px solid var(--ink-soft); padding:.5rem 0; }
    .muted { color:var(--ink-soft); }
    #notification { position:fixed; top:1rem; right:1rem; padding:.75rem 1rem; border-radius:4px; display:none; color:#fff; }
    #notification.show { display:block; } #notification.success { background:#28a745; } #notification.error { background:#dc3545; }
    input, select, button { font-family:inherit; margin:.2rem; }
    img.chart { max-width:100%; }
  </style>
</head>
<body>
  <div id="notification"></div>
  <header>
    <h1>Paydash</h1>
    <button id="theme-toggle" onclick="post('/api/theme/toggle')">Theme</button>
    <button id="btn-refresh" onclick="post('/api/refresh')">Refresh</button>
    <span id="auto-refresh" class="muted"></span>
  </header>

  <section><h2>Wallets</h2><div id="users" class="grid"></div></section>

  <section>
    <h2>Send money</h2>
    <form id="send-form" class="tracked">
      <select name="sender" id="sender"></select>
      <select name="recipient" id="recipient"></select>
      <input name="amount" id="amount" type="number" step="0.01" placeholder="Amount (USDT)">
      <button id="btn-transfer" type="submit">Send Money</button>
    </form>
  </section>

  <section>
    <h2>Transactions</h2>
    <input id="search" placeholder="Search id or address">
    <select id="filter-status"><option>ALL</option><option>SUCCESS</option><option>PENDING</option><option>FAILED</option></select>
    <select id="filter-amount"><option>ALL</option><option>0-50</option><option>50-100</option><option>100-500</option><option>500+</option></select>
    <select id="filter-user"><option>ALL</option></select>
    <button onclick="post('/api/filter/clear').then(resetFilters)">Clear</button>
    <a href="/export.csv">Export CSV</a>
    <div id="stats" class="muted"></div>
    <div id="transactions"></div>
  </section>

  <section><h2>Rates</h2><div id="rates" class="grid"></div></section>
  <section><h2>Vaults</h2><div id="vaults" class="grid"></div></section>
  <section><h2>Analytics</h2><div class="grid" id="charts"></div></section>

<script>
const $ = (id) => document.getElementById(id);
const esc = (s) => String(s ?? '').replace(/[&<>"']/g, (c) => ({'&':'&amp;','<':'&lt;','>':'&gt;','"':'&quot;',"'":'&#39;'}[c]));
let hideTimer = null;

function post(url, body){
  return fetch(url, {method:'POST', headers:{'Content-Type':'application/json'}, body: JSON.stringify(body || {})});
}

function options(el, placeholder, opts){
  const current = el.value;
  el.innerHTML = '<option value="">' + placeholder + '</option>' +
    opts.map((o) => '<option value="' + esc(o.value) + '">' + esc(o.label) + '</option>').join('');
  if (current) el.value = current;
}

function render(state){
  document.body.classList.toggle('dark-mode', state.dark_mode);
  $('auto-refresh').textContent = 'auto-refresh: ' + state.auto_refresh;

  $('users').innerHTML = state.users.cards.map((u) =>
    '<div class="card"><strong>' + esc(u.name) + '</strong><div>' + esc(u.balance) + '</div>' +
    '<div class="muted">' + esc(u.address) + '</div><span>' + esc(u.badge) + '</span></div>').join('');
  options($('sender'), 'Select sender...', state.users.sender_options);
  options($('recipient'), 'Select recipient...', state.users.recipient_options);
  const userFilter = $('filter-user'), selected = userFilter.value;
  userFilter.innerHTML = '<option>ALL</option>' + state.users.wallet_options.map((o) =>
    '<option value="' + esc(o.value) + '">' + esc(o.label) + '</option>').join('');
  userFilter.value = selected || 'ALL';

  const tx = state.transactions;
  $('stats').textContent = tx.stats.total_transactions + ' transactions | volume ' + tx.stats.total_volume +
    ' | average ' + tx.stats.average_amount + ' | fees ' + tx.stats.total_fees;
  $('transactions').innerHTML = tx.empty ? '<p class="muted">' + esc(tx.placeholder) + '</p>' :
    tx.items.map((t) => '<div class="transaction-item"><div><strong>' + esc(t.id) + '</strong><br>' + esc(t.route) +
      '<br><small class="muted">' + esc(t.timestamp) + '</small><br>Amount: ' + esc(t.amount) + ' | Fee: ' + esc(t.fee) +
      '</div><div><span class="status ' + esc(t.status_class) + '">' + esc(t.status) + '</span><br>' +
      '<a target="_blank" href="/receipt/' + encodeURIComponent(t.id) + '">View Receipt</a></div></div>').join('');

  $('rates').innerHTML = state.rates.map((r) =>
    '<div class="card"><strong>' + esc(r.currency) + '</strong><div>' + esc(r.rate) + '</div><div>' + esc(r.recommendation) +
    '</div><div class="' + esc(r.savings_class) + '">' + esc(r.savings) + ' vs 7-day avg</div></div>').join('');

  const vaults = state.vaults;
  $('vaults').innerHTML = vaults.empty ? '<p class="muted">' + esc(vaults.placeholder) + '</p>' :
    vaults.cards.map((v) => '<div class="card"><strong>' + esc(v.name) + '</strong> <span>' + esc(v.status) + '</span>' +
      '<div class="muted">' + esc(v.purpose) + '</div><div>' + esc(v.progress) + '</div><div>Remaining ' + esc(v.remaining) +
      ' of ' + esc(v.total) + '</div><div>' + esc(v.guardians) + ' | ' + esc(v.created) + '</div>' +
      (v.pending_badge ? '<div>' + esc(v.pending_badge) + '</div>' : '') + '</div>').join('');

  const ctrl = state.controls.transfer;
  $('btn-transfer').textContent = ctrl.label;
  $('btn-transfer').disabled = !ctrl.enabled;
  $('btn-refresh').disabled = !state.controls.refresh.enabled;

  const bust = Date.now();
  $('charts').innerHTML = ['volume', 'participants', 'amounts', 'status'].map((n) =>
    '<img class="chart" alt="' + n + '" src="/charts/' + n + '.png?t=' + bust + '" onerror="this.remove()">').join('');
}

function notify(note){
  const el = $('notification');
  if (note.dismissed) { el.classList.remove('show'); return; }
  el.textContent = note.message;
  el.className = note.kind + ' show';
}

function applyFilter(){
  post('/api/filter', {search: $('search').value, status: $('filter-status').value,
    amount: $('filter-amount').value, user: $('filter-user').value});
}

function resetFilters(){
  $('search').value = ''; $('filter-status').value = 'ALL'; $('filter-amount').value = 'ALL'; $('filter-user').value = 'ALL';
}

['search', 'filter-status', 'filter-amount', 'filter-user'].forEach((id) => $(id).addEventListener('input', applyFilter));
['sender', 'recipient', 'amount'].forEach((id) => {
  $(id).addEventListener('focus', () => post('/api/forms/focus', {event: 'focus'}));
  $(id).addEventListener('change', () => post('/api/forms/focus', {event: 'change'}));
});

$('send-form').addEventListener('submit', (e) => {
  e.preventDefault();
  const form = e.target;
  post('/api/send', {sender: form.sender.value, recipient: form.recipient.value, amount: form.amount.value})
    .then((res) => { if (res.ok) form.reset(); });
});

function connectSSE(){
  const source = new EventSource('/events');
  source.addEventListener('state', (event) => render(JSON.parse(event.data)));
  source.addEventListener('notification', (event) => notify(JSON.parse(event.data)));
  source.addEventListener('error', () => {
    source.close();
    setTimeout(connectSSE, 2000);
  });
}

connectSSE();
</script>
</body>
</html>
`
